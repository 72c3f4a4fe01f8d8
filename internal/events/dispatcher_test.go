package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var got []string
	d.Subscribe(EventCaseCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.CaseID)
		return errors.New("boom")
	})
	d.Subscribe(EventCaseCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.CaseID)
		return nil
	})
	d.Subscribe(EventCaseNoteAdded, func(_ context.Context, e Event) error {
		got = append(got, "note")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventCaseCreated, CaseID: "c1"}); err != nil {
		t.Fatalf("publish should not surface handler errors: %v", err)
	}
	if len(got) != 2 || got[0] != "first:c1" || got[1] != "second:c1" {
		t.Fatalf("got %v", got)
	}
}
