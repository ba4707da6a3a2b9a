package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	assert.NoError(t, r.Publish(context.Background(), Event{Type: JobCreated, JobID: 1}))
	assert.NoError(t, r.Publish(context.Background(), Event{Type: JobClosed, JobID: 1}))

	assert.Equal(t, []string{JobCreated, JobClosed}, r.Types())

	got := r.Events()
	got[0].JobID = 99
	assert.Equal(t, uint(1), r.Events()[0].JobID, "Events should return a copy")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: UserRated}))
}

func TestNewNATSPublisherBadURL(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1")
	assert.Error(t, err)
}
