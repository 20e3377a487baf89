package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/shopcart-backend/pkg/errors"
	"github.com/angelmondragon/shopcart-backend/pkg/lock"
	"github.com/angelmondragon/shopcart-backend/pkg/logger"
	"github.com/angelmondragon/shopcart-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	opAdd    = "add"
	opGet    = "get"
	opUpdate = "update"
	opRemove = "remove"
)

// Service owns the per-user cart: adding, repricing, updating and removing lines.
type Service interface {
	AddItem(ctx context.Context, userID string, input AddItemInput) (*CartDTO, error)
	GetCart(ctx context.Context, userID string) (*PricedCartDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) ([]PricedLineDTO, error)
	RemoveItem(ctx context.Context, userID, itemID string) ([]LineItemDTO, error)
}

// AddItemInput is the payload of an add-to-cart request. A nil or zero
// Quantity means 1.
type AddItemInput struct {
	ItemID   string
	Quantity *int
}

type service struct {
	repo    Repository
	catalog CatalogReader
	locker  lock.Locker
	metrics *metrics.CartMetrics
	logg    *logger.Logger
}

// NewService builds a cart service. Mutations for one user are serialized
// through locker and saved with an optimistic version check.
func NewService(repo Repository, catalog CatalogReader, locker lock.Locker, m *metrics.CartMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if locker == nil {
		return nil, fmt.Errorf("cart locker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, catalog: catalog, locker: locker, metrics: m, logg: logg}, nil
}

func (s *service) AddItem(ctx context.Context, userID string, input AddItemInput) (out *CartDTO, err error) {
	defer s.record(opAdd, &err)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rawID := strings.TrimSpace(input.ItemID)
	if rawID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	}
	itemID, parseErr := primitive.ObjectIDFromHex(rawID)
	if parseErr != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "itemId is invalid").
			WithDetails(map[string]any{"itemId": rawID})
	}
	quantity := 1
	if input.Quantity != nil && *input.Quantity != 0 {
		quantity = *input.Quantity
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	c, err := s.mutate(ctx, userID, true, func(c *Cart) error {
		if !c.add(itemID, quantity) {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity is too large").
				WithDetails(map[string]any{"itemId": rawID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewCartDTO(c), nil
}

func (s *service) GetCart(ctx context.Context, userID string) (out *PricedCartDTO, err error) {
	defer s.record(opGet, &err)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	lines, err := s.pricedLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PricedCartDTO{User: userID, Items: NewPricedLineDTOs(lines)}, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (out []PricedLineDTO, err error) {
	defer s.record(opUpdate, &err)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid quantity")
	}

	_, err = s.mutate(ctx, userID, false, func(c *Cart) error {
		id, parseErr := primitive.ObjectIDFromHex(strings.TrimSpace(itemID))
		i := -1
		if parseErr == nil {
			i = c.indexOf(id)
		}
		if i < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Item not in cart")
		}
		c.Items[i].Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	lines, err := s.pricedLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewPricedLineDTOs(lines), nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID string) (out []LineItemDTO, err error) {
	defer s.record(opRemove, &err)

	if err := requireUser(userID); err != nil {
		return nil, err
	}

	c, err := s.mutate(ctx, userID, false, func(c *Cart) error {
		// An id that cannot be parsed cannot be in the cart.
		if id, parseErr := primitive.ObjectIDFromHex(strings.TrimSpace(itemID)); parseErr == nil {
			c.remove(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewLineItemDTOs(c.Items), nil
}

// mutate runs fn against the user's cart under the per-user lock and saves
// the result. When create is false a missing cart is a NotFound error.
func (s *service) mutate(ctx context.Context, userID string, create bool, fn func(*Cart) error) (*Cart, error) {
	started := time.Now()
	release, err := s.locker.Acquire(ctx, userID)
	s.metrics.ObserveLockWait(time.Since(started))
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart is busy, retry the request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acquire cart lock")
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"user_id": userID, "error": relErr.Error()}), "cart.lock_release_failed")
		}
	}()

	c, err := s.repo.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, ErrCartNotFound):
		if !create {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
		}
		c = &Cart{UserID: userID, Items: []LineItem{}}
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, c); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was modified concurrently, retry the request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
	}
	return c, nil
}

// pricedLines joins the stored cart against the catalog at read time. Lines
// whose item no longer exists are skipped.
func (s *service) pricedLines(ctx context.Context, userID string) ([]PricedLine, error) {
	c, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return []PricedLine{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, line := range c.Items {
		ids = append(ids, line.ItemID)
	}
	items, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}

	lines := make([]PricedLine, 0, len(c.Items))
	for _, line := range c.Items {
		item, ok := items[line.ItemID]
		if !ok {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"user_id": userID,
				"item_id": line.ItemID.Hex(),
			}), "cart.item_missing_from_catalog")
			continue
		}
		lines = append(lines, PricedLine{
			ItemID:      line.ItemID,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Quantity:    line.Quantity,
			Total:       item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	return lines, nil
}

func (s *service) record(op string, errp *error) {
	s.metrics.IncOperation(op, outcomeFor(*errp))
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case pkgerrors.Is(err, pkgerrors.CodeConflict):
		return metrics.OutcomeConflict
	case pkgerrors.Is(err, pkgerrors.CodeValidation), pkgerrors.Is(err, pkgerrors.CodeNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "User not authenticated")
	}
	return nil
}
