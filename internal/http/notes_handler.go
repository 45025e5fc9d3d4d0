package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"axs-learn/internal/domain"
	"axs-learn/internal/repository"
)

// NotesHandler mantiene dependencias para endpoints de notas.
type NotesHandler struct {
	logger *zap.Logger
	notes  repository.NoteRepository
}

func NewNotesHandler(logger *zap.Logger, notes repository.NoteRepository) *NotesHandler {
	return &NotesHandler{
		logger: logger,
		notes:  notes,
	}
}

type noteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content" binding:"required"`
	Type     string   `json:"type"`
	AudioURL string   `json:"audioUrl"`
	Tags     []string `json:"tags"`
	IsPublic bool     `json:"isPublic"`
}

// List maneja GET /api/notes.
func (h *NotesHandler) List(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	notes, err := h.notes.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("fetch notes failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, notes)
}

// Create maneja POST /api/notes.
func (h *NotesHandler) Create(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Content is required"})
		return
	}
	if !domain.ValidNoteType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid note type"})
		return
	}

	note := domain.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		Type:      req.Type,
		AudioURL:  req.AudioURL,
		Tags:      req.Tags,
		IsPublic:  req.IsPublic,
		CreatedAt: time.Now().UTC(),
	}
	if note.Title == "" {
		note.Title = "Untitled Note"
	}
	if note.Type == "" {
		note.Type = domain.NoteTypeText
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	note.UpdatedAt = note.CreatedAt

	if err := h.notes.Create(c.Request.Context(), note); err != nil {
		h.logger.Error("create note failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, note)
}

// Update maneja PUT /api/notes/:id.
func (h *NotesHandler) Update(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Content is required"})
		return
	}
	if !domain.ValidNoteType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid note type"})
		return
	}
	if req.Type == "" {
		req.Type = domain.NoteTypeText
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	note, err := h.notes.Update(c.Request.Context(), domain.Note{
		ID:       c.Param("id"),
		UserID:   userID,
		Title:    req.Title,
		Content:  req.Content,
		Type:     req.Type,
		AudioURL: req.AudioURL,
		Tags:     req.Tags,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Note not found"})
			return
		}
		h.logger.Error("update note failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, note)
}

// Delete maneja DELETE /api/notes/:id.
func (h *NotesHandler) Delete(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	if err := h.notes.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Note not found"})
			return
		}
		h.logger.Error("delete note failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}
