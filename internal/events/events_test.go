package events

import (
	"context"
	"testing"
)

func TestManager_DispatchOrder(t *testing.T) {
	m := NewManager()
	var calls []string

	m.Register("order_load_before", ObserverFunc(func(ctx context.Context, e Event) {
		calls = append(calls, "first:"+e.Get("key").(string))
	}))
	m.Register("order_load_before", ObserverFunc(func(ctx context.Context, e Event) {
		calls = append(calls, "second")
	}))
	m.Register("other", ObserverFunc(func(ctx context.Context, e Event) {
		calls = append(calls, "other")
	}))

	m.Dispatch(context.Background(), "order_load_before", map[string]any{"key": "v"})

	if len(calls) != 2 || calls[0] != "first:v" || calls[1] != "second" {
		t.Errorf("calls = %v, want [first:v second]", calls)
	}
	if got := m.Count("order_load_before"); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestManager_NilAndUnknown(t *testing.T) {
	var m *Manager
	m.Dispatch(context.Background(), "anything", nil)

	m = NewManager()
	m.Dispatch(context.Background(), "nobody_listens", nil)

	if (Event{}).Get("missing") != nil {
		t.Error("Get on empty event should return nil")
	}
}
