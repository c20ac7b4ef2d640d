package bus

import (
	"testing"
)

func TestTopicFanOut(t *testing.T) {
	topic := NewTopic[int]()

	ch1, unsub1 := topic.Subscribe(4)
	ch2, unsub2 := topic.Subscribe(4)
	defer unsub1()
	defer unsub2()

	topic.Publish(42)

	for i, ch := range []<-chan int{ch1, ch2} {
		select {
		case got := <-ch:
			if got != 42 {
				t.Errorf("subscriber %d received %d, want 42", i, got)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestTopicPublishDoesNotBlockOnFullBuffer(t *testing.T) {
	topic := NewTopic[string]()

	ch, unsub := topic.Subscribe(1)
	defer unsub()

	topic.Publish("first")
	topic.Publish("dropped")

	if got := <-ch; got != "first" {
		t.Errorf("received %q, want %q", got, "first")
	}

	select {
	case extra := <-ch:
		t.Errorf("unexpected second event %q", extra)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	topic := NewTopic[int]()

	ch, unsub := topic.Subscribe(1)
	unsub()

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}

	if got := topic.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}

	// Second unsubscribe is a no-op
	unsub()
}
