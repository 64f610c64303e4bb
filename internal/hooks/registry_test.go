package hooks

import (
	"context"
	"errors"
	"testing"

	"threadpost/internal/models"

	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	name  string
	log   *[]string
	fails bool
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Handle(ctx context.Context, event Event, payload *Payload) error {
	*h.log = append(*h.log, h.name)
	if h.fails {
		return errors.New("boom")
	}
	return nil
}

func TestRegistryDispatchOrder(t *testing.T) {
	registry := NewRegistry()
	var calls []string

	registry.Register(&recordingHandler{name: "first", log: &calls}, EventMessageCreated)
	registry.Register(&recordingHandler{name: "second", log: &calls}, EventMessageCreated)

	failed := registry.Fire(context.Background(), EventMessageCreated, &Payload{Message: &models.Message{}})
	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestRegistryFailureIsolation(t *testing.T) {
	registry := NewRegistry()
	var calls []string

	registry.Register(&recordingHandler{name: "failing", log: &calls, fails: true}, EventMessageEdited)
	registry.Register(&recordingHandler{name: "after", log: &calls}, EventMessageEdited)

	// A failing handler must not block the ones after it.
	failed := registry.Fire(context.Background(), EventMessageEdited, &Payload{Message: &models.Message{}})
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"failing", "after"}, calls)
}

func TestRegistryEventScoping(t *testing.T) {
	registry := NewRegistry()
	var calls []string

	registry.Register(&recordingHandler{name: "create-only", log: &calls}, EventMessageCreated)

	registry.Fire(context.Background(), EventMessageDeleted, &Payload{Message: &models.Message{}})
	assert.Empty(t, calls)

	registry.Fire(context.Background(), EventMessageCreated, &Payload{Message: &models.Message{}})
	assert.Equal(t, []string{"create-only"}, calls)
}
