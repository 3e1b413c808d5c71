package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/patria-foods/storefront/internal/domain/cart"
	"github.com/patria-foods/storefront/internal/domain/catalog"
	"github.com/patria-foods/storefront/internal/domain/realtime"
	"github.com/patria-foods/storefront/internal/observability"
	"github.com/patria-foods/storefront/internal/observability/logctx"
)

const componentCart = "cart_service"

// LineView joins a cart line with its live catalog product. Product is nil
// when the product row has disappeared since the line was added.
type LineView struct {
	Line    *domain.Line
	Product *catalog.Product
}

// Totals is the priced summary of a cart. Prices are resolved at read time
// from the live catalog, so a price change moves existing cart totals.
type Totals struct {
	Subtotal  decimal.Decimal
	ItemCount int
}

type Service struct {
	lines     domain.Repository
	products  catalog.Repository
	ids       IDGenerator
	publisher realtime.Publisher
	log       observability.Logger
	tel       observability.Telemetry
}

func NewService(
	lines domain.Repository,
	products catalog.Repository,
	ids IDGenerator,
	publisher realtime.Publisher,
	log observability.Logger,
	tel observability.Telemetry,
) *Service {
	return &Service{
		lines:     lines,
		products:  products,
		ids:       ids,
		publisher: publisher,
		log:       log.With(observability.F("component", componentCart)),
		tel:       tel,
	}
}

// List returns the owner's cart newest-first, each line joined with its product.
func (s *Service) List(ctx context.Context, owner domain.Owner) ([]*LineView, error) {
	if !owner.Valid() {
		return nil, domain.ErrInvalidOwner
	}

	lines, err := s.lines.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("cart: list: %w", err)
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("cart: list products: %w", err)
	}

	out := make([]*LineView, len(lines))
	for i, l := range lines {
		out[i] = &LineView{Line: l, Product: products[l.ProductID]}
	}
	return out, nil
}

// Add puts a product in the cart. Re-adding a product the owner already has
// accumulates onto the existing line instead of creating a second one.
func (s *Service) Add(ctx context.Context, owner domain.Owner, productID string, quantity int) (*domain.Line, error) {
	logger := logctx.FromOr(ctx, s.log)

	if !owner.Valid() {
		return nil, domain.ErrInvalidOwner
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, fmt.Errorf("cart: add: %w", err)
	}

	existing, err := s.lines.FindByOwnerAndProduct(ctx, owner, productID)
	switch {
	case err == nil:
		return s.setQuantity(ctx, existing, existing.Quantity+quantity)
	case errors.Is(err, domain.ErrNotFound):
		// fall through to insert
	default:
		return nil, fmt.Errorf("cart: add: %w", err)
	}

	line, err := domain.NewLine(s.ids.NewID(), owner, productID, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.lines.Insert(ctx, line); err != nil {
		return nil, fmt.Errorf("cart: add: %w", err)
	}

	logger.Info("cart_line_added",
		observability.F("owner", owner.Key()),
		observability.F("product_id", productID),
		observability.F("quantity", quantity),
	)
	s.publish(ctx, domain.NewChangedEvent(domain.ChangeInsert, owner, line))
	return line, nil
}

// SetQuantity updates a line the owner holds. A non-positive quantity removes
// the line and reports domain.ErrLineRemoved; the removal has already happened
// when that error comes back.
func (s *Service) SetQuantity(ctx context.Context, owner domain.Owner, lineID string, quantity int) (*domain.Line, error) {
	line, err := s.owned(ctx, owner, lineID)
	if err != nil {
		return nil, err
	}
	return s.setQuantity(ctx, line, quantity)
}

func (s *Service) setQuantity(ctx context.Context, line *domain.Line, quantity int) (*domain.Line, error) {
	logger := logctx.FromOr(ctx, s.log)

	if quantity <= 0 {
		if err := s.lines.Delete(ctx, line.ID); err != nil {
			return nil, fmt.Errorf("cart: remove on zero quantity: %w", err)
		}
		logger.Info("cart_line_removed_on_zero_quantity",
			observability.F("owner", line.Owner.Key()),
			observability.F("line_id", line.ID),
		)
		s.publish(ctx, domain.NewChangedEvent(domain.ChangeDelete, line.Owner, line))
		return nil, domain.ErrLineRemoved
	}

	if err := s.lines.UpdateQuantity(ctx, line.ID, quantity); err != nil {
		return nil, fmt.Errorf("cart: set quantity: %w", err)
	}
	line.Quantity = quantity

	s.publish(ctx, domain.NewChangedEvent(domain.ChangeUpdate, line.Owner, line))
	return line, nil
}

// Remove deletes a line. Removing a line that is already gone succeeds.
func (s *Service) Remove(ctx context.Context, owner domain.Owner, lineID string) error {
	line, err := s.owned(ctx, owner, lineID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.lines.Delete(ctx, lineID); err != nil {
		return fmt.Errorf("cart: remove: %w", err)
	}
	s.publish(ctx, domain.NewChangedEvent(domain.ChangeDelete, owner, line))
	return nil
}

// Clear empties the owner's cart.
func (s *Service) Clear(ctx context.Context, owner domain.Owner) error {
	if !owner.Valid() {
		return domain.ErrInvalidOwner
	}
	if err := s.lines.DeleteByOwner(ctx, owner); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	s.publish(ctx, domain.NewChangedEvent(domain.ChangeDelete, owner, nil))
	return nil
}

// Total prices the cart at current catalog prices. Read failures and missing
// products degrade to zero contributions rather than erroring: the total is a
// badge, not a financial record.
func (s *Service) Total(ctx context.Context, owner domain.Owner) Totals {
	logger := logctx.FromOr(ctx, s.log)

	if !owner.Valid() {
		return Totals{}
	}

	lines, err := s.lines.ListByOwner(ctx, owner)
	if err != nil {
		logger.Warn("cart_total_list_failed",
			observability.F("owner", owner.Key()),
			observability.F("error", err),
		)
		return Totals{}
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		logger.Warn("cart_total_products_failed",
			observability.F("owner", owner.Key()),
			observability.F("error", err),
		)
		products = nil
	}

	var totals Totals
	for _, l := range lines {
		totals.ItemCount += l.Quantity
		p := products[l.ProductID]
		if p == nil {
			continue
		}
		totals.Subtotal = totals.Subtotal.Add(p.ResolvedPrice().Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return totals
}

// MergeGuestIntoUser folds a guest cart into the user cart at login. Lines for
// products the user already has accumulate quantity; the rest are reassigned.
// A failure partway returns ErrMergeIncomplete; the merge is safe to re-run.
func (s *Service) MergeGuestIntoUser(ctx context.Context, sessionID, userID string) error {
	logger := logctx.FromOr(ctx, s.log)

	guest := domain.GuestOwner(sessionID)
	user := domain.UserOwner(userID)
	if !guest.Valid() || !user.Valid() {
		return domain.ErrInvalidOwner
	}

	guestLines, err := s.lines.ListByOwner(ctx, guest)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMergeIncomplete, err)
	}
	if len(guestLines) == 0 {
		return nil
	}

	for _, gl := range guestLines {
		existing, err := s.lines.FindByOwnerAndProduct(ctx, user, gl.ProductID)
		switch {
		case err == nil:
			if err := s.lines.UpdateQuantity(ctx, existing.ID, existing.Quantity+gl.Quantity); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrMergeIncomplete, err)
			}
			if err := s.lines.Delete(ctx, gl.ID); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrMergeIncomplete, err)
			}
		case errors.Is(err, domain.ErrNotFound):
			if err := s.lines.Reassign(ctx, gl.ID, user); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrMergeIncomplete, err)
			}
		default:
			return fmt.Errorf("%w: %w", domain.ErrMergeIncomplete, err)
		}
	}

	// Belt and braces: the loop above already moved or deleted every line.
	if err := s.lines.DeleteByOwner(ctx, guest); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMergeIncomplete, err)
	}

	logger.Info("cart_merged",
		observability.F("session_id", sessionID),
		observability.F("user_id", userID),
		observability.F("lines", len(guestLines)),
	)
	s.publish(ctx, domain.NewChangedEvent(domain.ChangeUpdate, user, nil))
	return nil
}

func (s *Service) owned(ctx context.Context, owner domain.Owner, lineID string) (*domain.Line, error) {
	if !owner.Valid() {
		return nil, domain.ErrInvalidOwner
	}
	line, err := s.lines.FindByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	// A foreign owner's line is indistinguishable from a missing one.
	if line.Owner != owner {
		return nil, domain.ErrNotFound
	}
	return line, nil
}

func (s *Service) publish(ctx context.Context, e domain.ChangedEvent) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err),
		)
		s.tel.Counter(observability.MEventPublishFailed).Add(1, observability.L("event", e.EventName()))
	}
}
