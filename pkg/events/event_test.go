package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEvent(t *testing.T) {
	e := New(ReviewCreated, map[string]interface{}{"reviewId": "rev_1"})

	assert.Equal(t, "review.created", e.EventType())
	assert.Equal(t, "rev_1", e.Payload()["reviewId"])
	assert.False(t, e.Timestamp().IsZero())
}
