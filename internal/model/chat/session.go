package chat

import "time"

// Session is a read-only snapshot of a conversation tracked by the store.
type Session struct {
	ID         string     `json:"id"`
	History    []Exchange `json:"history"`
	LastActive time.Time  `json:"lastActive"`
}
