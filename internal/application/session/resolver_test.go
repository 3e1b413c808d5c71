package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patria-foods/storefront/internal/observability"
)

type memStore struct {
	id      string
	loadErr error
	saveErr error
}

func (s *memStore) Load() (string, error) { return s.id, s.loadErr }

func (s *memStore) Save(id string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.id = id
	return nil
}

type stubGen struct{ next string }

func (g stubGen) NewGuestID() string { return g.next }

func TestGetOrCreateMintsAndPersists(t *testing.T) {
	store := &memStore{}
	r := NewResolver(store, stubGen{next: "guest_1700000000000_abc123xyz"}, observability.NopLogger())

	id := r.GetOrCreate(context.Background())

	require.Equal(t, "guest_1700000000000_abc123xyz", id)
	require.Equal(t, id, store.id)
	require.True(t, strings.HasPrefix(id, "guest_"))
}

func TestGetOrCreateReturnsStoredID(t *testing.T) {
	store := &memStore{id: "guest_1_existing"}
	r := NewResolver(store, stubGen{next: "guest_2_fresh"}, observability.NopLogger())

	require.Equal(t, "guest_1_existing", r.GetOrCreate(context.Background()))
	require.Equal(t, "guest_1_existing", r.GetOrCreate(context.Background()))
}

func TestGetOrCreateSurvivesStorageFailures(t *testing.T) {
	store := &memStore{
		loadErr: errors.New("cookie jar sealed"),
		saveErr: errors.New("cookie jar sealed"),
	}
	r := NewResolver(store, stubGen{next: "guest_3_volatile"}, observability.NopLogger())

	require.Equal(t, "guest_3_volatile", r.GetOrCreate(context.Background()))
	require.Empty(t, store.id)
}
