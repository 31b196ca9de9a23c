// Package model defines domain entities for the application.
package model

import "time"

// Todo represents a single todo item.
type Todo struct {
	ID          string
	Text        string
	Completed   bool
	CompletedAt *time.Time
	OwnerID     string
	CreatedAt   time.Time
}

// SetCompleted updates the completion flag and keeps CompletedAt in step:
// it is set to now when completed and cleared otherwise.
func (t *Todo) SetCompleted(completed bool, now time.Time) {
	t.Completed = completed
	if completed {
		at := now.UTC()
		t.CompletedAt = &at
		return
	}
	t.CompletedAt = nil
}

// CompletedAtMillis returns CompletedAt as Unix milliseconds, or nil.
func (t *Todo) CompletedAtMillis() *int64 {
	if t.CompletedAt == nil {
		return nil
	}
	ms := t.CompletedAt.UnixMilli()
	return &ms
}

// OwnedBy reports whether the todo belongs to the given user.
// An empty userID matches every todo.
func (t *Todo) OwnedBy(userID string) bool {
	return userID == "" || t.OwnerID == userID
}
