package messaging

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherDisabled(t *testing.T) {
	p, err := NewPublisher(Config{Enabled: false, URL: "nats://127.0.0.1:1"})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish("anything", map[string]int{"a": 1}))
	assert.NoError(t, p.Close())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish("reservation.created", map[string]int64{"id": 7}))
	require.NoError(t, r.Publish("contact.added", map[string]int64{"contactId": 2}))

	assert.Equal(t, []string{"reservation.created", "contact.added"}, r.Subjects())

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	var payload map[string]int64
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	assert.Equal(t, int64(7), payload["id"])

	// Returned slice is a copy.
	msgs[0].Subject = "changed"
	assert.Equal(t, "reservation.created", r.Messages()[0].Subject)
}

func TestRecorderMarshalError(t *testing.T) {
	r := &Recorder{}
	err := r.Publish("bad", make(chan int))
	require.Error(t, err)
	assert.Empty(t, r.Subjects())
}
