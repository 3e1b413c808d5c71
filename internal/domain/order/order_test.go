package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewItemComputesTotal(t *testing.T) {
	unit, _ := decimal.NewFromString("4.25")

	item, err := NewItem("i-1", "o-1", "p-1", "Olive Oil", "", 3, unit)
	require.NoError(t, err)
	require.True(t, item.TotalPrice.Equal(decimal.RequireFromString("12.75")))
}

func TestNewItemRejectsNonPositiveQuantity(t *testing.T) {
	_, err := NewItem("i-1", "o-1", "p-1", "Olive Oil", "", 0, decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewItem("i-1", "o-1", "p-1", "Olive Oil", "", -2, decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSetStatusStampsTimestamps(t *testing.T) {
	o := &Order{Status: StatusPending}

	o.SetStatus(StatusProcessing)
	require.Nil(t, o.ShippedAt)
	require.Nil(t, o.DeliveredAt)

	o.SetStatus(StatusShipped)
	require.NotNil(t, o.ShippedAt)
	require.Nil(t, o.DeliveredAt)

	o.SetStatus(StatusDelivered)
	require.NotNil(t, o.ShippedAt)
	require.NotNil(t, o.DeliveredAt)
}

func TestSetStatusUnknownValueLeavesTimestamps(t *testing.T) {
	o := &Order{Status: StatusPending}

	o.SetStatus(Status("weird_status"))
	require.Equal(t, Status("weird_status"), o.Status)
	require.Nil(t, o.ShippedAt)
	require.Nil(t, o.DeliveredAt)
}

func TestSetTrackingShips(t *testing.T) {
	o := &Order{Status: StatusProcessing}

	o.SetTracking("TRK-99")
	require.Equal(t, "TRK-99", o.TrackingNumber)
	require.Equal(t, StatusShipped, o.Status)
	require.NotNil(t, o.ShippedAt)
}

func TestCloneIsDeep(t *testing.T) {
	o := &Order{ID: "o-1", Items: []*Item{{ID: "i-1", Quantity: 1}}}

	clone := o.Clone()
	clone.Items[0].Quantity = 9
	require.Equal(t, 1, o.Items[0].Quantity)
}
