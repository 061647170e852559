package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const quizPromptTemplate = `Create a multiple choice quiz based on this YouTube video:
%s

Return ONLY valid JSON in this exact format:

{
  "title": "Quiz title",
  "description": "Short description",
  "questions": [
    {
      "question_title": "Question text",
      "question_options": [
        "Option 1",
        "Option 2",
        "Option 3",
        "Option 4"
      ],
      "answer": "Correct option exactly as written above"
    }
  ]
}

Do NOT prefix options with A., B., C., or D.
No explanations. No markdown. Only JSON.`

// GeneratedQuiz is the decoded shape of the model's response.
type GeneratedQuiz struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Questions   []GeneratedQuestion `json:"questions"`
}

type GeneratedQuestion struct {
	QuestionTitle   string   `json:"question_title"`
	QuestionOptions []string `json:"question_options"`
	Answer          string   `json:"answer"`
}

// GeneratorService runs the generation pipeline: prompt build, one external
// model call, fence stripping, decode. It holds no mutable state and is safe
// for concurrent use.
type GeneratorService struct {
	llm llms.Model
}

// NewGeneratorService builds the Gemini-backed generator. An empty API key
// yields an unconfigured service whose GenerateFromVideo fails with
// ErrGeneratorNotConfigured before any network call.
func NewGeneratorService(apiKey, model string) (*GeneratorService, error) {
	if apiKey == "" {
		return &GeneratorService{}, nil
	}

	llm, err := googleai.New(context.Background(),
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeneratorService{llm: llm}, nil
}

// NewGeneratorServiceWithModel injects a prebuilt model, used by tests.
func NewGeneratorServiceWithModel(llm llms.Model) *GeneratorService {
	return &GeneratorService{llm: llm}
}

func (s *GeneratorService) Configured() bool {
	return s.llm != nil
}

// GenerateFromVideo runs the full pipeline for one video URL. A single failed
// attempt fails the operation; there is no retry.
func (s *GeneratorService) GenerateFromVideo(ctx context.Context, videoURL string) (*GeneratedQuiz, error) {
	if s.llm == nil {
		return nil, ErrGeneratorNotConfigured
	}

	prompt := buildQuizPrompt(videoURL)

	completion, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, llms.WithTemperature(0.7))
	if err != nil {
		log.Printf("Quiz generation call failed for %s: %v", videoURL, err)
		return nil, &GenerationError{Err: err}
	}

	return decodeGeneratedQuiz(stripCodeFences(completion))
}

// buildQuizPrompt embeds the video URL into the fixed instruction template.
func buildQuizPrompt(videoURL string) string {
	return fmt.Sprintf(quizPromptTemplate, videoURL)
}

// stripCodeFences removes a leading ```json or ``` marker and a trailing ```
// marker. It is prefix/suffix stripping only and makes no attempt to find
// JSON embedded in surrounding prose. Applying it twice is a no-op.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// decodeGeneratedQuiz parses sanitized model output and validates that every
// field the materializer needs is present, collecting all problems into one
// DecodeError instead of failing on the first.
func decodeGeneratedQuiz(text string) (*GeneratedQuiz, error) {
	var quiz GeneratedQuiz
	if err := json.Unmarshal([]byte(text), &quiz); err != nil {
		return nil, &DecodeError{Message: "the external content did not return valid structured data"}
	}

	var problems []string
	if quiz.Title == "" {
		problems = append(problems, "title is missing or empty")
	}
	if len(quiz.Questions) == 0 {
		problems = append(problems, "questions are missing or empty")
	}
	for i, q := range quiz.Questions {
		if q.QuestionTitle == "" {
			problems = append(problems, fmt.Sprintf("questions[%d].question_title is missing or empty", i))
		}
		if len(q.QuestionOptions) == 0 {
			problems = append(problems, fmt.Sprintf("questions[%d].question_options is missing or empty", i))
		}
		if q.Answer == "" {
			problems = append(problems, fmt.Sprintf("questions[%d].answer is missing or empty", i))
		}
	}
	if len(problems) > 0 {
		return nil, &DecodeError{
			Message: "the external content did not match the expected quiz shape",
			Fields:  problems,
		}
	}

	return &quiz, nil
}
