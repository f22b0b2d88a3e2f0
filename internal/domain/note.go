package domain

import "time"

type Note struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`

	// SharedUsers holds the IDs of users the owner granted write access to.
	// The owner is never stored here; ownership is implicit access.
	SharedUsers []string `json:"shared_users"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SharedWith reports whether userID is in the shared set. Ownership is
// checked separately.
func (n *Note) SharedWith(userID string) bool {
	for _, id := range n.SharedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content"`
}

type ShareNoteRequest struct {
	NoteID string   `json:"note_id" validate:"required"`
	Users  []string `json:"users" validate:"required,min=1"`
}

type UpdateNoteRequest struct {
	Content string `json:"content" validate:"required"`
}

type NoteResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Note) ToResponse() *NoteResponse {
	return &NoteResponse{
		ID:        n.ID,
		User:      n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
