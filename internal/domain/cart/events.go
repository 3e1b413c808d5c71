package cart

import "time"

type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangedEvent notifies subscribers that the owner's cart rows changed.
// Consumers treat it as a refetch trigger, not as a row delta.
type ChangedEvent struct {
	Kind       ChangeKind
	Owner      Owner
	LineID     string
	ProductID  string
	Quantity   int
	OccurredAt time.Time
}

func (ChangedEvent) EventName() string { return "cart.changed" }

func (e ChangedEvent) OwnerKey() string { return e.Owner.Key() }

func NewChangedEvent(kind ChangeKind, owner Owner, line *Line) ChangedEvent {
	e := ChangedEvent{
		Kind:       kind,
		Owner:      owner,
		OccurredAt: time.Now().UTC(),
	}
	if line != nil {
		e.LineID = line.ID
		e.ProductID = line.ProductID
		e.Quantity = line.Quantity
	}
	return e
}
