package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/erijustudio/storefront-backend/pkg/config"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
)

const embedColorNewOrder = 0xF2A7C3

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title     string              `json:"title"`
	Color     int                 `json:"color"`
	Fields    []discordEmbedField `json:"fields"`
	Timestamp string              `json:"timestamp"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordDispatcher posts one embed per order to a Discord webhook.
type DiscordDispatcher struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

// NewDiscordDispatcher builds a dispatcher from notify configuration.
func NewDiscordDispatcher(cfg config.NotifyConfig) (*DiscordDispatcher, error) {
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		return nil, fmt.Errorf("discord webhook url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiscordDispatcher{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: timeout},
		now:        time.Now,
	}, nil
}

// Send performs a single delivery attempt. Retries are the caller's concern.
func (d *DiscordDispatcher) Send(ctx context.Context, notification OrderNotification) error {
	body, err := json.Marshal(d.buildPayload(notification))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver notification")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}
	return nil
}

func (d *DiscordDispatcher) buildPayload(n OrderNotification) discordPayload {
	var lines []string
	for _, item := range n.Items {
		lines = append(lines, fmt.Sprintf("%s x%d (NT$%d)", item.Name, item.Qty, item.Price*item.Qty))
	}
	itemsValue := strings.Join(lines, "\n")
	if itemsValue == "" {
		itemsValue = "-"
	}

	embed := discordEmbed{
		Title: "新訂單通知",
		Color: embedColorNewOrder,
		Fields: []discordEmbedField{
			{Name: "訂購人", Value: n.CustomerName, Inline: true},
			{Name: "電話", Value: n.CustomerPhone, Inline: true},
			{Name: "取貨門市", Value: n.PickupAddress},
			{Name: "商品", Value: itemsValue},
			{Name: "總金額", Value: fmt.Sprintf("NT$%d", n.Total), Inline: true},
		},
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}
	return discordPayload{Embeds: []discordEmbed{embed}}
}
