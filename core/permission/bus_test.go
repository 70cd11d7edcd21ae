package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusPublishOrder(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(func(ev Changed) { got = append(got, "first") })
	bus.Subscribe(func(ev Changed) { got = append(got, "second") })

	bus.Publish(Changed{Permissions: Set{CapInputScores: true}})
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	var calls int
	cancel := bus.Subscribe(func(ev Changed) { calls++ })

	bus.Publish(Changed{})
	cancel()
	cancel() // idempotent
	bus.Publish(Changed{})

	assert.Equal(t, 1, calls)
}

func TestBusPayload(t *testing.T) {
	bus := NewBus()

	var got Set
	bus.Subscribe(func(ev Changed) { got = ev.Permissions })

	bus.Publish(Changed{Permissions: Set{CapRegisterStudents: true, CapViewReports: false}})
	assert.Equal(t, Set{CapRegisterStudents: true, CapViewReports: false}, got)
}
