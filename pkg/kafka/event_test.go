package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleCompletedData struct {
	OrderID string `json:"order_id"`
	Total   int64  `json:"total"`
}

func TestNewEvent(t *testing.T) {
	data := saleCompletedData{OrderID: "ord-1", Total: 196000}

	event, err := NewEvent("pos.sale.completed", "tx-1", "transaction", "pos-service", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "pos.sale.completed", event.EventType)
	assert.Equal(t, "tx-1", event.AggregateID)
	assert.Equal(t, "transaction", event.AggregateType)
	assert.Equal(t, "pos-service", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	event, err := NewEvent("pos.cart.updated", "tx-2", "transaction", "pos-service",
		saleCompletedData{OrderID: "ord-2", Total: 5000})
	require.NoError(t, err)
	event.WithCorrelationID("corr-9")

	raw, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-9", decoded.CorrelationID)

	var data saleCompletedData
	require.NoError(t, decoded.UnmarshalData(&data))
	assert.Equal(t, "ord-2", data.OrderID)
	assert.Equal(t, int64(5000), data.Total)
}

func TestUnmarshalEvent_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{broken"))
	require.Error(t, err)
}
