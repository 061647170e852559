package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidquiz/models"
	"vidquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type countingModel struct {
	response string
	calls    int
}

func (m *countingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *countingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	m.calls++
	return m.response, nil
}

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Quiz{}, &models.Question{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func setupQuizRouter(t *testing.T, db *gorm.DB, model llms.Model, userID uint) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewQuizHandler(services.NewQuizService(db), services.NewGeneratorServiceWithModel(model))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	router.POST("/api/quizzes", handler.CreateQuiz)
	router.GET("/api/quizzes/:id", handler.GetQuizByID)
	return router
}

func TestCreateQuiz_RejectsNonVideoURLBeforeGeneration(t *testing.T) {
	db := newHandlerTestDB(t)
	user := models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	model := &countingModel{}
	router := setupQuizRouter(t, db, model, user.ID)

	for _, body := range []string{
		`{"url": "https://vimeo.com/12345"}`,
		`{"url": "not a url at all"}`,
		`{}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}

	if model.calls != 0 {
		t.Errorf("external model was called %d times for invalid input", model.calls)
	}
}

func TestCreateQuiz_PersistsGeneratedQuiz(t *testing.T) {
	db := newHandlerTestDB(t)
	user := models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	model := &countingModel{
		response: "```json\n{\"title\":\"T\",\"description\":\"D\",\"questions\":[{\"question_title\":\"Q1\",\"question_options\":[\"A\",\"B\",\"C\",\"D\"],\"answer\":\"B\"}]}\n```",
	}
	router := setupQuizRouter(t, db, model, user.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(`{"url": "https://youtube.com/watch?v=abc"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if model.calls != 1 {
		t.Errorf("expected exactly one model call, got %d", model.calls)
	}

	var quizCount int64
	if err := db.Model(&models.Quiz{}).Where("user_id = ?", user.ID).Count(&quizCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if quizCount != 1 {
		t.Errorf("expected 1 persisted quiz, got %d", quizCount)
	}

	body := w.Body.String()
	if !strings.Contains(body, `"title":"T"`) || !strings.Contains(body, `"answer":"B"`) {
		t.Errorf("unexpected response body: %s", body)
	}
}

func TestGetQuizByID_DistinguishesMissingFromFailure(t *testing.T) {
	db := newHandlerTestDB(t)
	user := models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	quiz := models.Quiz{UserID: user.ID, Title: "T", VideoURL: "https://youtu.be/abc"}
	if err := db.Create(&quiz).Error; err != nil {
		t.Fatalf("failed to create quiz: %v", err)
	}

	router := setupQuizRouter(t, db, &countingModel{}, user.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/99999", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("absent quiz: status = %d, want 404", w.Code)
	}

	// A datastore failure must not masquerade as a missing quiz.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access underlying database: %v", err)
	}
	sqlDB.Close()

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/quizzes/%d", quiz.ID), nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("datastore failure: status = %d, want 500", w.Code)
	}
}
