package domain

import "time"

// Tipos de nota soportados.
const (
	NoteTypeText  = "text"
	NoteTypeAudio = "audio"
	NoteTypeMixed = "mixed"
)

// Note es un apunte propiedad de un usuario.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	AudioURL  string    `json:"audioUrl,omitempty"`
	Tags      []string  `json:"tags"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidNoteType valida el tipo de nota; vacio usa el default "text".
func ValidNoteType(t string) bool {
	switch t {
	case "", NoteTypeText, NoteTypeAudio, NoteTypeMixed:
		return true
	}
	return false
}
