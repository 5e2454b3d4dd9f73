package domain

import "time"

// Message is one chat message under a meeting. The engine reads messages
// only to derive unread state; delivery and ordering belong to the store.
type Message struct {
	ID        string
	MeetingID string
	SenderID  string
	Content   string
	SentAt    time.Time
}
