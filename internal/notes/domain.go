package notes

import "time"

// Note is a user-owned note.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Excerpt returns a short preview of the note body for listings.
func (n Note) Excerpt() string {
	const max = 140
	if len(n.Body) <= max {
		return n.Body
	}
	return n.Body[:max] + "…"
}
