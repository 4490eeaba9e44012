package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/enums"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/logger"
	"github.com/erijustudio/storefront-backend/pkg/storage/publicurl"
)

// MaxLineQuantity caps a single line to keep carts sane.
const MaxLineQuantity = 99

// Line is one priced cart row.
type Line struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	Price         int       `json:"price"`
	OriginalPrice *int      `json:"original_price,omitempty"`
	Image         string    `json:"image"`
	Quantity      int       `json:"qty"`
	LineTotal     int       `json:"line_total"`
}

// View is the priced cart returned to shoppers.
type View struct {
	Items    []Line `json:"items"`
	Subtotal int    `json:"subtotal"`
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type mirrorWriter interface {
	Sync(ctx context.Context, userID string, view View) error
	Clear(ctx context.Context, userID string) error
}

// Service exposes cart reads and writes. Writes land in Postgres first; the
// Redis mirror is refreshed afterwards and its failures only log.
type Service interface {
	Load(ctx context.Context, userID uuid.UUID) (*View, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	products productLoader
	mirror   mirrorWriter
	resolver *publicurl.Resolver
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, products productLoader, mirror mirrorWriter, resolver *publicurl.Resolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if mirror == nil {
		return nil, fmt.Errorf("cart mirror required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("image resolver required")
	}
	return &service{
		repo:     repo,
		products: products,
		mirror:   mirror,
		resolver: resolver,
		logg:     logg,
	}, nil
}

// Load prices the cart from Postgres and refreshes the mirror, so a stale or
// evicted mirror heals on the next read.
func (s *service) Load(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.reload(ctx, userID)
}

func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}
	if quantity > MaxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", MaxLineQuantity))
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available")
	}

	if err := s.repo.Upsert(ctx, userID, productID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart line")
	}
	return s.reload(ctx, userID)
}

// Remove drops a line. Removing an already absent line succeeds and returns
// the current view.
func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	return s.reload(ctx, userID)
}

// Clear empties the cart in both backends. Errors from each backend are
// combined so neither failure hides the other.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var combined error
	if err := s.repo.DeleteAllForUser(ctx, userID); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("clear cart rows: %w", err))
	}
	if err := s.mirror.Clear(ctx, userID.String()); err != nil {
		combined = multierr.Append(combined, err)
	}
	if combined != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, combined, "clear cart")
	}
	return nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*View, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	view := s.buildView(items)

	if err := s.mirror.Sync(ctx, userID.String(), view); err != nil && s.logg != nil {
		mctx := s.logg.WithFields(ctx, map[string]any{"user_id": userID.String()})
		s.logg.Warn(mctx, "cart mirror sync failed: "+err.Error())
	}

	return &view, nil
}

func (s *service) buildView(items []models.CartItem) View {
	view := View{Items: make([]Line, 0, len(items))}
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		lineTotal := decimal.NewFromInt(int64(item.Product.Price)).
			Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		image := ""
		if resolved, ok := s.resolver.Resolve(item.Product.Image); ok {
			image = resolved
		}
		view.Items = append(view.Items, Line{
			ProductID:     item.ProductID,
			Name:          item.Product.Name,
			Price:         item.Product.Price,
			OriginalPrice: item.Product.OriginalPrice,
			Image:         image,
			Quantity:      item.Quantity,
			LineTotal:     int(lineTotal.IntPart()),
		})
	}
	view.Subtotal = int(subtotal.IntPart())
	return view
}
