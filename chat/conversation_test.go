package chat

import (
	"testing"

	"dockchat/llm"
)

func TestFindIndexByCreateTime(t *testing.T) {
	list := []Conversation{
		{CreateTime: 10},
		{CreateTime: 20},
	}
	if got := FindIndexByCreateTime(list, 20); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
	if got := FindIndexByCreateTime(list, 99); got != -1 {
		t.Errorf("expected -1 for absent key, got %d", got)
	}
}

func TestSortByLastUpdateDesc_DoesNotMutate(t *testing.T) {
	list := []Conversation{
		{Title: "old", LastUpdateTime: 1},
		{Title: "new", LastUpdateTime: 3},
		{Title: "mid", LastUpdateTime: 2},
	}
	sorted := SortByLastUpdateDesc(list)

	if sorted[0].Title != "new" || sorted[1].Title != "mid" || sorted[2].Title != "old" {
		t.Errorf("wrong order: %+v", sorted)
	}
	if list[0].Title != "old" {
		t.Error("input slice was mutated")
	}
}

func TestUpsertConversation_PrependsNewRecord(t *testing.T) {
	existing := []Conversation{{Title: "older", CreateTime: 1, LastUpdateTime: 1}}
	msgs := []Message{{ID: 0, Role: RoleUser, Content: []llm.Part{llm.TextPart("hi")}}}

	out := upsertConversation(existing, 100, msgs, "fresh", 200)

	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].CreateTime != 100 || out[0].Title != "fresh" || out[0].LastUpdateTime != 200 {
		t.Errorf("new record malformed: %+v", out[0])
	}
}

func TestUpsertConversation_ReplacesMessagesKeepsTitle(t *testing.T) {
	existing := []Conversation{{Title: "kept title", CreateTime: 100, LastUpdateTime: 1}}
	msgs := []Message{{ID: 0, Role: RoleUser, Content: []llm.Part{llm.TextPart("updated")}}}

	out := upsertConversation(existing, 100, msgs, "fallback", 300)

	if len(out) != 1 {
		t.Fatalf("upsert on an existing key must not add a record, got %d", len(out))
	}
	if out[0].Title != "kept title" {
		t.Errorf("stored title must survive, got %q", out[0].Title)
	}
	if out[0].LastUpdateTime != 300 || len(out[0].Messages) != 1 {
		t.Errorf("messages/lastUpdateTime not replaced: %+v", out[0])
	}
}

func TestUpsertConversation_FillsEmptyTitle(t *testing.T) {
	existing := []Conversation{{Title: "", CreateTime: 100}}
	out := upsertConversation(existing, 100, nil, "fallback", 1)
	if out[0].Title != "fallback" {
		t.Errorf("untitled record should take the fallback, got %q", out[0].Title)
	}
}
