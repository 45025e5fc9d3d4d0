package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"axs-learn/internal/domain"
	"axs-learn/internal/repository"
	"axs-learn/internal/service"
)

// QuizHandler mantiene dependencias para endpoints de quizzes.
type QuizHandler struct {
	logger  *zap.Logger
	results repository.QuizResultRepository
}

func NewQuizHandler(logger *zap.Logger, results repository.QuizResultRepository) *QuizHandler {
	return &QuizHandler{
		logger:  logger,
		results: results,
	}
}

// ListResults maneja GET /api/quiz/results.
func (h *QuizHandler) ListResults(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	results, err := h.results.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("fetch quiz results failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// SaveResult maneja POST /api/quiz/results.
func (h *QuizHandler) SaveResult(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req struct {
		QuizID         string              `json:"quizId" binding:"required"`
		Score          float64             `json:"score" binding:"min=0,max=100"`
		TotalQuestions int                 `json:"totalQuestions" binding:"required"`
		CorrectAnswers int                 `json:"correctAnswers"`
		TimeSpent      int                 `json:"timeSpent"`
		Answers        []domain.QuizAnswer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	result := domain.QuizResult{
		ID:             uuid.NewString(),
		UserID:         userID,
		QuizID:         req.QuizID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		CorrectAnswers: req.CorrectAnswers,
		TimeSpent:      req.TimeSpent,
		Answers:        req.Answers,
		CreatedAt:      time.Now().UTC(),
	}
	if result.Answers == nil {
		result.Answers = []domain.QuizAnswer{}
	}

	if err := h.results.Create(c.Request.Context(), result); err != nil {
		h.logger.Error("save quiz result failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Stats maneja GET /api/quiz/stats.
func (h *QuizHandler) Stats(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	results, err := h.results.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("fetch quiz stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, service.BuildQuizStats(results))
}
