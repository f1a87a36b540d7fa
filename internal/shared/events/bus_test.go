package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testHandler struct {
	types []string
	seen  []Event
	err   error
}

func (h *testHandler) Handles() []string { return h.types }

func (h *testHandler) Handle(e Event) error {
	h.seen = append(h.seen, e)
	return h.err
}

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	h := &testHandler{types: []string{PaymentSettledType}}
	bus.Subscribe(h)

	event := NewPaymentSettledEvent(uuid.New(), uuid.New(), "PLIC_D20260830_00001ABCD", "TRX1", 100000, "", "", "")
	bus.Publish(event)

	assert.Len(t, h.seen, 1)
	assert.Equal(t, PaymentSettledType, h.seen[0].EventType())
}

func TestBusIgnoresUnrelatedEventTypes(t *testing.T) {
	bus := NewBus(zap.NewNop())
	h := &testHandler{types: []string{PaymentFailedType}}
	bus.Subscribe(h)

	bus.Publish(NewPaymentSettledEvent(uuid.New(), uuid.New(), "t", "x", 1, "", "", ""))

	assert.Empty(t, h.seen)
}

func TestBusHandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())
	failing := &testHandler{types: []string{PaymentFailedType}, err: errors.New("boom")}
	ok := &testHandler{types: []string{PaymentFailedType}}
	bus.Subscribe(failing)
	bus.Subscribe(ok)

	bus.Publish(NewPaymentFailedEvent(uuid.New(), uuid.New(), "t", "9999", "declined"))

	assert.Len(t, failing.seen, 1)
	assert.Len(t, ok.seen, 1)
}
