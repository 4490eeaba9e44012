package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/pkg/config"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/types"
)

func testNotification() OrderNotification {
	return OrderNotification{
		OrderID:       uuid.New(),
		CustomerName:  "林小美",
		CustomerPhone: "0912345678",
		PickupAddress: "【7-11 大安門市】台北市大安區和平東路一段1號",
		Items: types.OrderItems{
			{ProductID: uuid.New(), Name: "Sticker Pack", Qty: 2, Price: 120},
			{ProductID: uuid.New(), Name: "Art Print", Qty: 1, Price: 450},
		},
		Total: 690,
	}
}

func newTestDispatcher(t *testing.T, url string) *DiscordDispatcher {
	t.Helper()
	d, err := NewDiscordDispatcher(config.NotifyConfig{WebhookURL: url, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewDiscordDispatcher failed: %v", err)
	}
	return d
}

func TestSend_PostsEmbed(t *testing.T) {
	t.Parallel()

	var received discordPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dispatcher := newTestDispatcher(t, server.URL)
	if err := dispatcher.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(received.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(received.Embeds))
	}
	embed := received.Embeds[0]
	if embed.Title != "新訂單通知" {
		t.Fatalf("unexpected title %q", embed.Title)
	}
	if len(embed.Fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(embed.Fields))
	}
	if embed.Fields[4].Value != "NT$690" {
		t.Fatalf("unexpected total field %q", embed.Fields[4].Value)
	}
}

func TestSend_WebhookFailureIsDependencyError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	dispatcher := newTestDispatcher(t, server.URL)
	err := dispatcher.Send(context.Background(), testNotification())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewDiscordDispatcher_RequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := NewDiscordDispatcher(config.NotifyConfig{}); err == nil {
		t.Fatal("expected missing webhook url to error")
	}
}
