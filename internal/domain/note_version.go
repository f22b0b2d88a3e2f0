package domain

import "time"

// NoteVersion is one append-only log entry: the fragment a user appended to a
// note, not a full snapshot. Entries are never mutated after creation.
type NoteVersion struct {
	ID        string    `json:"id"`
	NoteID    string    `json:"note_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// VersionEntry is the outward shape of one history record. User carries the
// editor's username, not their ID.
type VersionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
}
