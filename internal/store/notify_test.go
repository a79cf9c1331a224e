package store

import (
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestNotifierDeliversInOrder(t *testing.T) {
	n := NewNotifier(8)
	defer n.Close()

	got := make(chan Change, 8)
	n.Subscribe(func(c Change) { got <- c })

	n.Publish(Change{Op: OpCreate, ExpenseID: "1"})
	n.Publish(Change{Op: OpUpdate, ExpenseID: "1"})
	n.Publish(Change{Op: OpDelete, ExpenseID: "1"})

	for _, want := range []string{OpCreate, OpUpdate, OpDelete} {
		c := receive(t, got)
		if c.Op != want || c.ExpenseID != "1" {
			t.Fatalf("expected %s for 1, got %+v", want, c)
		}
		if c.At.IsZero() {
			t.Fatal("expected publish time to be set")
		}
	}
}

func TestNotifierUnsubscribe(t *testing.T) {
	n := NewNotifier(8)
	defer n.Close()

	first := make(chan Change, 8)
	second := make(chan Change, 8)
	unsubscribe := n.Subscribe(func(c Change) { first <- c })
	n.Subscribe(func(c Change) { second <- c })
	if n.Subscribers() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", n.Subscribers())
	}

	unsubscribe()
	unsubscribe()
	if n.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", n.Subscribers())
	}

	n.Publish(Change{Op: OpCreate, ExpenseID: "2"})
	receive(t, second)
	select {
	case c := <-first:
		t.Fatalf("unsubscribed listener received %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifierPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	n := NewNotifier(1)
	defer n.Close()

	release := make(chan struct{})
	n.Subscribe(func(Change) { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			n.Publish(Change{Op: OpCreate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	close(release)
}

func TestNotifierClose(t *testing.T) {
	n := NewNotifier(1)
	n.Subscribe(func(Change) {})
	n.Close()
	n.Close()
	if n.Subscribers() != 0 {
		t.Fatalf("expected no subscribers after close, got %d", n.Subscribers())
	}
	n.Publish(Change{Op: OpCreate})
	unsubscribe := n.Subscribe(func(Change) { t.Error("closed notifier delivered a change") })
	unsubscribe()
}
