package chat

import "sort"

// FindIndexByCreateTime locates a conversation record by its identity
// key, returning -1 when absent.
func FindIndexByCreateTime(list []Conversation, createTime int64) int {
	for i, c := range list {
		if c.CreateTime == createTime {
			return i
		}
	}
	return -1
}

// SortByLastUpdateDesc returns a copy of the list ordered by
// lastUpdateTime descending. List order is always derived, never
// mutated in place.
func SortByLastUpdateDesc(list []Conversation) []Conversation {
	out := make([]Conversation, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdateTime > out[j].LastUpdateTime
	})
	return out
}

// upsertConversation merges a completed turn's messages into the
// collection. Absent key: a new record is prepended with fallbackTitle.
// Present: only messages and lastUpdateTime are replaced; the stored
// title survives unless the record was still untitled.
func upsertConversation(list []Conversation, createTime int64, messages []Message, fallbackTitle string, now int64) []Conversation {
	idx := FindIndexByCreateTime(list, createTime)
	if idx == -1 {
		record := Conversation{
			Title:          fallbackTitle,
			CreateTime:     createTime,
			LastUpdateTime: now,
			Messages:       messages,
		}
		return append([]Conversation{record}, list...)
	}
	updated := list[idx]
	updated.Messages = messages
	updated.LastUpdateTime = now
	if updated.Title == "" {
		updated.Title = fallbackTitle
	}
	list[idx] = updated
	return list
}
