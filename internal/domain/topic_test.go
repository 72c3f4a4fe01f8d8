package domain

import (
	"encoding/json"
	"testing"
)

func TestTopicZeroValueIsNotApplicable(t *testing.T) {
	var topic Topic
	if topic.Applicable() || topic != TopicNotApplicable {
		t.Fatal("zero topic must be NotApplicable")
	}
	raw, err := json.Marshal(topic)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "null" {
		t.Fatalf("got %s", raw)
	}
}

func TestSpecificTopicRoundTrip(t *testing.T) {
	topic, err := SpecificTopic("Trato discriminatorio")
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(topic)
	var decoded Topic
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded != topic || !decoded.Applicable() {
		t.Fatalf("decoded %v", decoded)
	}
}

func TestSpecificTopicRejectsUnknown(t *testing.T) {
	if _, err := SpecificTopic("No aplica"); err == nil {
		t.Fatal("the sentinel label is not a specific topic")
	}
	var decoded Topic
	if err := json.Unmarshal([]byte(`"whatever"`), &decoded); err == nil {
		t.Fatal("expected error for unknown topic")
	}
}
