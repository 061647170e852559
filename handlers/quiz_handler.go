package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"vidquiz/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService      *services.QuizService
	generatorService *services.GeneratorService
}

func NewQuizHandler(quizService *services.QuizService, generatorService *services.GeneratorService) *QuizHandler {
	return &QuizHandler{
		quizService:      quizService,
		generatorService: generatorService,
	}
}

type createQuizRequest struct {
	URL string `json:"url" binding:"required"`
}

type completeQuizRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

func isYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}

// CreateQuiz runs the generation pipeline for a submitted video URL and
// persists the result. Validation failures never reach the external model.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req createQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !isYouTubeURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid YouTube URL"})
		return
	}

	generated, err := h.generatorService.GenerateFromVideo(c.Request.Context(), req.URL)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrGeneratorNotConfigured) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.CreateFromGenerated(userID.(uint), req.URL, generated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save quiz"})
		return
	}

	c.JSON(http.StatusCreated, services.NewQuizDetailView(quiz))
}

func (h *QuizHandler) GetUserQuizzes(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizzes, err := h.quizService.GetUserQuizzes(userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, services.NewQuizListView(quizzes))
}

func (h *QuizHandler) GetQuizByID(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	quiz, err := h.quizService.GetQuizByID(uint(quizID), userID.(uint))
	if err != nil {
		if errors.Is(err, services.ErrQuizNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load quiz"})
		return
	}

	c.JSON(http.StatusOK, services.NewQuizPublicDetailView(quiz))
}

// UpdateQuiz applies a strict-allowlist partial update and responds with the
// re-fetched quiz without nested questions.
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.UpdateQuiz(uint(quizID), userID.(uint), patch)
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		case errors.Is(err, services.ErrQuizNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update quiz"})
		}
		return
	}

	c.JSON(http.StatusOK, services.NewQuizSummaryView(quiz))
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	if err := h.quizService.DeleteQuiz(uint(quizID), userID.(uint)); err != nil {
		if errors.Is(err, services.ErrQuizNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete quiz"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "Quiz deleted successfully"})
}

// CompleteQuiz grades submitted answers and records the score.
func (h *QuizHandler) CompleteQuiz(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	var req completeQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers := make(map[uint]string, len(req.Answers))
	for key, value := range req.Answers {
		questionID, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Answer keys must be question IDs"})
			return
		}
		answers[uint(questionID)] = value
	}

	quiz, results, err := h.quizService.CompleteQuiz(uint(quizID), userID.(uint), answers)
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		case errors.Is(err, services.ErrQuizNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete quiz"})
		}
		return
	}

	c.JSON(http.StatusOK, services.NewQuizResultView(quiz, results))
}
