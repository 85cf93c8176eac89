package client

import (
	"sync"
	"testing"
)

func TestSerialExecutor_PreservesOrder(t *testing.T) {
	exec := NewSerialExecutor()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		exec.Schedule(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}

	wg.Wait()
	exec.Close()

	for i, v := range order {
		if v != i {
			t.Fatalf("task %d ran out of order (got %d)", i, v)
		}
	}
}

func TestSerialExecutor_CloseRunsQueuedTasks(t *testing.T) {
	exec := NewSerialExecutor()

	ran := 0
	for i := 0; i < 10; i++ {
		exec.Schedule(func() { ran++ })
	}
	exec.Close()

	if ran != 10 {
		t.Errorf("expected 10 tasks to run before Close returned, got %d", ran)
	}
}

func TestDispatcher_OneArgumentHandler(t *testing.T) {
	var got []Event
	d := dispatcher{
		exec:    DirectExecutor{},
		handler: OnEvent(func(ev Event) { got = append(got, ev) }),
	}

	d.deliver(Event{Kind: EventDelta, Delta: Delta{Content: "x"}})
	d.deliver(Event{Kind: EventStop})

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].Delta.Content != "x" || got[1].Kind != EventStop {
		t.Errorf("unexpected events: %+v", got)
	}
}

func TestDispatcher_TwoArgumentHandlerStatus(t *testing.T) {
	type delivery struct {
		ev     Event
		status string
	}

	var got []delivery
	d := dispatcher{
		exec: DirectExecutor{},
		handler: OnEventStatus(func(ev Event, status string) {
			got = append(got, delivery{ev, status})
		}),
	}

	d.deliver(Event{Kind: EventDelta, Delta: Delta{Content: "x"}})
	d.deliver(Event{Kind: EventDelta, FinishReason: FinishReasonStop})
	d.deliver(Event{Kind: EventStop})
	d.deliver(Event{Kind: EventError, Err: "boom"})

	want := []string{"", FinishReasonStop, TagStop, TagError}
	if len(got) != len(want) {
		t.Fatalf("expected %d deliveries, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].status != w {
			t.Errorf("delivery %d: expected status %q, got %q", i, w, got[i].status)
		}
	}
}

func TestDispatcher_EachEventDeliveredOnce(t *testing.T) {
	count := 0
	d := dispatcher{
		exec:    DirectExecutor{},
		handler: OnEventStatus(func(Event, string) { count++ }),
	}

	d.deliver(Event{Kind: EventDelta})

	if count != 1 {
		t.Errorf("event delivered %d times, want exactly once", count)
	}
}
