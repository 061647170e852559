package services

import (
	"time"

	"vidquiz/models"
)

// View types are deterministic projections of persisted quizzes. Which view
// an endpoint returns is fixed by the endpoint, not by caller parameters.
//
// The answer key is included in owner-facing views: the product is a study
// aid, so owners see answers alongside questions.

type QuestionView struct {
	ID              uint      `json:"id"`
	QuestionTitle   string    `json:"question_title"`
	QuestionOptions []string  `json:"question_options"`
	Answer          string    `json:"answer"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// QuestionPublicView omits question-level timestamps.
type QuestionPublicView struct {
	ID              uint     `json:"id"`
	QuestionTitle   string   `json:"question_title"`
	QuestionOptions []string `json:"question_options"`
	Answer          string   `json:"answer"`
}

type QuizDetailView struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	VideoURL    string         `json:"video_url"`
	Score       *int           `json:"score"`
	IsCompleted bool           `json:"is_completed"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Questions   []QuestionView `json:"questions"`
}

type QuizPublicDetailView struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	VideoURL    string               `json:"video_url"`
	Score       *int                 `json:"score"`
	IsCompleted bool                 `json:"is_completed"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Questions   []QuestionPublicView `json:"questions"`
}

// QuizSummaryView carries quiz fields without nested questions. Used as the
// update response.
type QuizSummaryView struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"video_url"`
	Score       *int      `json:"score"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QuizResultView is the grading outcome returned by the complete endpoint.
type QuizResultView struct {
	Quiz    QuizSummaryView  `json:"quiz"`
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"results"`
}

func NewQuizDetailView(quiz *models.Quiz) QuizDetailView {
	questions := make([]QuestionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, QuestionView{
			ID:              q.ID,
			QuestionTitle:   q.QuestionTitle,
			QuestionOptions: q.Options(),
			Answer:          q.Answer,
			CreatedAt:       q.CreatedAt,
			UpdatedAt:       q.UpdatedAt,
		})
	}
	return QuizDetailView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		VideoURL:    quiz.VideoURL,
		Score:       quiz.Score,
		IsCompleted: quiz.IsCompleted,
		CreatedAt:   quiz.CreatedAt,
		UpdatedAt:   quiz.UpdatedAt,
		Questions:   questions,
	}
}

func NewQuizPublicDetailView(quiz *models.Quiz) QuizPublicDetailView {
	questions := make([]QuestionPublicView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, QuestionPublicView{
			ID:              q.ID,
			QuestionTitle:   q.QuestionTitle,
			QuestionOptions: q.Options(),
			Answer:          q.Answer,
		})
	}
	return QuizPublicDetailView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		VideoURL:    quiz.VideoURL,
		Score:       quiz.Score,
		IsCompleted: quiz.IsCompleted,
		CreatedAt:   quiz.CreatedAt,
		UpdatedAt:   quiz.UpdatedAt,
		Questions:   questions,
	}
}

func NewQuizListView(quizzes []models.Quiz) []QuizPublicDetailView {
	views := make([]QuizPublicDetailView, 0, len(quizzes))
	for i := range quizzes {
		views = append(views, NewQuizPublicDetailView(&quizzes[i]))
	}
	return views
}

func NewQuizSummaryView(quiz *models.Quiz) QuizSummaryView {
	return QuizSummaryView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		VideoURL:    quiz.VideoURL,
		Score:       quiz.Score,
		IsCompleted: quiz.IsCompleted,
		CreatedAt:   quiz.CreatedAt,
		UpdatedAt:   quiz.UpdatedAt,
	}
}

func NewQuizResultView(quiz *models.Quiz, results []QuestionResult) QuizResultView {
	score := 0
	if quiz.Score != nil {
		score = *quiz.Score
	}
	return QuizResultView{
		Quiz:    NewQuizSummaryView(quiz),
		Score:   score,
		Total:   len(results),
		Results: results,
	}
}
