package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart: line not found")
	ErrInvalidOwner    = errors.New("cart: owner must be either a user or a guest session")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")

	// ErrLineRemoved reports that a set-quantity call with a non-positive
	// quantity deleted the line instead of updating it. The deletion has
	// already succeeded when this error is returned; callers that consider
	// removal a success must match on it explicitly.
	ErrLineRemoved = errors.New("cart: line removed")

	// ErrMergeIncomplete reports that a guest-to-user merge stopped partway.
	// The cart is left consistent per line but the merge must be re-run to
	// become authoritative.
	ErrMergeIncomplete = errors.New("cart: guest merge incomplete")
)

// Owner scopes cart lines to either an authenticated user or an anonymous
// guest session, never both.
type Owner struct {
	UserID    string
	SessionID string
}

func UserOwner(userID string) Owner     { return Owner{UserID: userID} }
func GuestOwner(sessionID string) Owner { return Owner{SessionID: sessionID} }

func (o Owner) IsGuest() bool { return o.UserID == "" && o.SessionID != "" }

func (o Owner) Valid() bool {
	return (o.UserID != "") != (o.SessionID != "")
}

// Key returns the single identifying value, used for event filtering and logs.
func (o Owner) Key() string {
	if o.UserID != "" {
		return o.UserID
	}
	return o.SessionID
}

// Line is one (owner, product) entry. There is at most one line per owner and
// product; re-adding the same product accumulates quantity on the existing line.
type Line struct {
	ID        string
	Owner     Owner
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewLine(id string, owner Owner, productID string, quantity int) (*Line, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Line{
		ID:        id,
		Owner:     owner,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (l *Line) Clone() *Line {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}
