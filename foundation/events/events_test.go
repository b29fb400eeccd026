package events_test

import (
	"testing"

	"github.com/datben/gulf-stream/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	evts := events.New()

	t.Log("Given the need to fan out node events.")
	{
		a := evts.Acquire("a")
		b := evts.Acquire("b")
		if evts.Acquire("a") != a || evts.Len() != 2 {
			t.Fatalf("\t%s\tShould return the same channel for the same id.", failed)
		}
		t.Logf("\t%s\tShould return the same channel for the same id.", success)

		evts.Send("viewer: block mined")
		if got := <-a; got != "viewer: block mined" {
			t.Fatalf("\t%s\tShould deliver to the first subscriber: %q", failed, got)
		}
		if got := <-b; got != "viewer: block mined" {
			t.Fatalf("\t%s\tShould deliver to the second subscriber: %q", failed, got)
		}
		t.Logf("\t%s\tShould deliver to every subscriber.", success)

		for range 200 {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block on a full subscriber.", success)

		if err := evts.Release("a"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a subscriber: %v", failed, err)
		}
		if err := evts.Release("a"); err == nil {
			t.Fatalf("\t%s\tShould fail to release an unknown subscriber.", failed)
		}
		t.Logf("\t%s\tShould release a subscriber once.", success)

		evts.Shutdown()
		for range b {
		}
		if evts.Len() != 0 {
			t.Fatalf("\t%s\tShould remove every subscriber on shutdown.", failed)
		}
		t.Logf("\t%s\tShould close every subscriber on shutdown.", success)
	}
}
