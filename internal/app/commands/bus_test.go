package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type ping struct{ n int }

func (ping) Key() string { return "test.ping" }

type other struct{}

func (other) Key() string { return "test.other" }

func TestDispatchTyped(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[ping, int](bus, ping{}.Key(), HandlerFunc[ping, int](func(_ context.Context, p ping) (int, error) {
		return p.n * 2, nil
	}))

	got, err := Dispatch[ping, int](context.Background(), bus, ping{n: 21})
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %d (%v)", got, err)
	}
	if _, err := Dispatch[ping, string](context.Background(), bus, ping{}); !errors.Is(err, ErrResultType) || !strings.Contains(err.Error(), "returned int") {
		t.Fatalf("expected ErrResultType naming the actual type, got %v", err)
	}
	if _, err := Dispatch[other, int](context.Background(), bus, other{}); !errors.Is(err, ErrHandlerNotFound) {
		t.Fatalf("expected ErrHandlerNotFound, got %v", err)
	}
	if _, err := Dispatch[ping, int](context.Background(), nil, ping{}); !errors.Is(err, ErrNilBus) {
		t.Fatalf("expected ErrNilBus, got %v", err)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[ping, int](func(context.Context, ping) (int, error) { return 0, nil })
	RegisterHandler[ping, int](bus, ping{}.Key(), h)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate key")
		}
	}()
	RegisterHandler[ping, int](bus, ping{}.Key(), h)
}
