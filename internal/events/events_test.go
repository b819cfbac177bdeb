package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Envelope(t *testing.T) {
	data, err := Marshal(SubjectOrderPlaced, OrderPlaced{OrderID: "o-1", Total: "20.00"})
	require.NoError(t, err)

	var got struct {
		EventID string          `json:"event_id"`
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &got))

	assert.NotEmpty(t, got.EventID)
	assert.Equal(t, SubjectOrderPlaced, got.Type)
	assert.JSONEq(t, `{"order_id":"o-1","user_id":"","total":"20.00","payment_ref":"","units":0,"lines":null}`, string(got.Payload))
}

func TestNop_Publish(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), SubjectReviewCreated, ReviewCreated{}))
}
