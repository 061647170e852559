package services

import (
	"errors"
	"fmt"

	"vidquiz/models"

	"gorm.io/gorm"
)

type QuizService struct {
	db *gorm.DB
}

func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{db: db}
}

// updatableQuizFields is the strict allowlist for partial updates. Any other
// key in the payload rejects the whole request.
var updatableQuizFields = map[string]string{
	"title":       "title",
	"description": "description",
	"video_url":   "video_url",
}

// CreateFromGenerated materializes a decoded quiz for the requesting user.
// The video URL is taken verbatim from the caller's input, never from the
// model output. Quiz and questions are written in one transaction so the
// caller sees either both or neither.
func (s *QuizService) CreateFromGenerated(userID uint, videoURL string, data *GeneratedQuiz) (*models.Quiz, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	quiz := models.Quiz{
		UserID:      userID,
		Title:       data.Title,
		Description: data.Description,
		VideoURL:    videoURL,
	}

	if err := tx.Create(&quiz).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	questions := make([]models.Question, 0, len(data.Questions))
	for _, q := range data.Questions {
		options, err := models.OptionsJSON(q.QuestionOptions)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to encode question options: %w", err)
		}
		questions = append(questions, models.Question{
			QuizID:          quiz.ID,
			QuestionTitle:   q.QuestionTitle,
			QuestionOptions: options,
			Answer:          q.Answer,
		})
	}

	if len(questions) > 0 {
		if err := tx.Create(&questions).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetQuizByID(quiz.ID, userID)
}

func (s *QuizService) GetUserQuizzes(userID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Where("user_id = ?", userID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id")
		}).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

// GetQuizByID is ownership-scoped at the query: a quiz owned by another user
// is indistinguishable from a missing one.
func (s *QuizService) GetQuizByID(quizID uint, userID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Where("id = ? AND user_id = ?", quizID, userID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id")
		}).
		First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// UpdateQuiz applies a partial update restricted to title, description and
// video_url. Empty payloads and unknown keys are rejected outright rather
// than silently ignored. The returned quiz is re-fetched after the write.
func (s *QuizService) UpdateQuiz(quizID uint, userID uint, patch map[string]any) (*models.Quiz, error) {
	if len(patch) == 0 {
		return nil, &ValidationError{Message: "update payload must not be empty"}
	}

	updates := make(map[string]any, len(patch))
	for key, value := range patch {
		column, ok := updatableQuizFields[key]
		if !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("unknown field %q", key)}
		}
		text, ok := value.(string)
		if !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("field %q must be a string", key)}
		}
		updates[column] = text
	}

	quiz, err := s.GetQuizByID(quizID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(quiz).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetQuizByID(quizID, userID)
}

// DeleteQuiz removes the quiz and all of its questions. Questions are
// deleted explicitly in the same transaction so soft deletes cascade too.
func (s *QuizService) DeleteQuiz(quizID uint, userID uint) error {
	if _, err := s.GetQuizByID(quizID, userID); err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Delete(&models.Quiz{}, quizID).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// QuestionResult is the per-question outcome of a grading pass.
type QuestionResult struct {
	QuestionID uint   `json:"question_id"`
	Correct    bool   `json:"correct"`
	Submitted  string `json:"submitted"`
	Answer     string `json:"answer"`
}

// CompleteQuiz grades the submitted answers against the stored verbatim
// answer strings, then records the score and completion flag. Re-completing
// a quiz overwrites the previous score.
func (s *QuizService) CompleteQuiz(quizID uint, userID uint, answers map[uint]string) (*models.Quiz, []QuestionResult, error) {
	quiz, err := s.GetQuizByID(quizID, userID)
	if err != nil {
		return nil, nil, err
	}

	if len(answers) == 0 {
		return nil, nil, &ValidationError{Message: "answers must not be empty"}
	}

	questionIDs := make(map[uint]bool, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questionIDs[q.ID] = true
	}
	for id := range answers {
		if !questionIDs[id] {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("question %d does not belong to this quiz", id)}
		}
	}

	score := 0
	results := make([]QuestionResult, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		submitted := answers[q.ID]
		correct := submitted != "" && submitted == q.Answer
		if correct {
			score++
		}
		results = append(results, QuestionResult{
			QuestionID: q.ID,
			Correct:    correct,
			Submitted:  submitted,
			Answer:     q.Answer,
		})
	}

	if err := s.db.Model(quiz).Updates(map[string]any{
		"score":        score,
		"is_completed": true,
	}).Error; err != nil {
		return nil, nil, err
	}

	updated, err := s.GetQuizByID(quizID, userID)
	if err != nil {
		return nil, nil, err
	}

	return updated, results, nil
}
