package agent

import "testing"

func TestProgressBrokerFanOut(t *testing.T) {
	b := NewProgressBroker()
	ch1, cancel1 := b.Subscribe("u1", "s1")
	ch2, cancel2 := b.Subscribe("u1", "s1")
	defer cancel1()
	defer cancel2()

	b.Publish("u1", "s1", "Downloading document...")

	for i, ch := range []<-chan string{ch1, ch2} {
		select {
		case label := <-ch:
			if label != "Downloading document..." {
				t.Errorf("subscriber %d: unexpected label %q", i, label)
			}
		default:
			t.Errorf("subscriber %d: expected a buffered label", i)
		}
	}
}

func TestProgressBrokerScopedToConversation(t *testing.T) {
	b := NewProgressBroker()
	ch, cancel := b.Subscribe("u1", "s1")
	defer cancel()

	b.Publish("u1", "s2", "other session")
	b.Publish("u2", "s1", "other user")

	select {
	case label := <-ch:
		t.Errorf("unexpected label %q", label)
	default:
	}
}

func TestProgressBrokerCancelStopsDelivery(t *testing.T) {
	b := NewProgressBroker()
	ch, cancel := b.Subscribe("u1", "s1")
	cancel()

	b.Publish("u1", "s1", "late")

	select {
	case label := <-ch:
		t.Errorf("unexpected label after cancel: %q", label)
	default:
	}
}

func TestProgressBrokerNeverBlocks(t *testing.T) {
	b := NewProgressBroker()
	_, cancel := b.Subscribe("u1", "s1")
	defer cancel()

	// Overrun the subscriber buffer; publishes must not block.
	for i := 0; i < 100; i++ {
		b.Publish("u1", "s1", "label")
	}
}
