package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	response string
	err      error
	calls    int
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	m.calls++
	return m.response, m.err
}

func TestBuildQuizPrompt(t *testing.T) {
	url := "https://youtube.com/watch?v=abc123"
	prompt := buildQuizPrompt(url)

	for _, want := range []string{
		url,
		`"title"`,
		`"description"`,
		`"question_title"`,
		`"question_options"`,
		`"answer"`,
		"Do NOT prefix options",
		"Only JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "json fence",
			input: "```json\n{\"title\": \"T\"}\n```",
			want:  `{"title": "T"}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"title\": \"T\"}\n```",
			want:  `{"title": "T"}`,
		},
		{
			name:  "no fence",
			input: `{"title": "T"}`,
			want:  `{"title": "T"}`,
		},
		{
			name:  "surrounding whitespace",
			input: "  \n```json\n{}\n```  \n",
			want:  "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripCodeFences(tt.input)
			if got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Stripping already-sanitized text must be a no-op.
			if again := stripCodeFences(got); again != got {
				t.Errorf("stripCodeFences is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestDecodeGeneratedQuiz_InvalidJSON(t *testing.T) {
	_, err := decodeGeneratedQuiz("this is not json")

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Message != "the external content did not return valid structured data" {
		t.Errorf("unexpected message: %q", decodeErr.Message)
	}
}

func TestDecodeGeneratedQuiz_EnumeratesFieldProblems(t *testing.T) {
	payload := `{"description": "D", "questions": [{"question_options": ["A"]}]}`

	_, err := decodeGeneratedQuiz(payload)

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	for _, want := range []string{
		"title is missing or empty",
		"questions[0].question_title is missing or empty",
		"questions[0].answer is missing or empty",
	} {
		found := false
		for _, field := range decodeErr.Fields {
			if field == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing field problem %q in %v", want, decodeErr.Fields)
		}
	}
}

func TestDecodeGeneratedQuiz_Valid(t *testing.T) {
	payload := `{"title":"T","description":"D","questions":[{"question_title":"Q1","question_options":["A","B","C","D"],"answer":"B"}]}`

	quiz, err := decodeGeneratedQuiz(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quiz.Title != "T" || quiz.Description != "D" {
		t.Errorf("unexpected quiz fields: %+v", quiz)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].Answer != "B" {
		t.Errorf("unexpected questions: %+v", quiz.Questions)
	}
}

func TestGenerateFromVideo_NotConfigured(t *testing.T) {
	svc, err := NewGeneratorService("", "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Configured() {
		t.Fatal("service should not be configured without an API key")
	}

	_, err = svc.GenerateFromVideo(context.Background(), "https://youtube.com/watch?v=abc")
	if !errors.Is(err, ErrGeneratorNotConfigured) {
		t.Errorf("expected ErrGeneratorNotConfigured, got %v", err)
	}
}

func TestGenerateFromVideo_FencedOutput(t *testing.T) {
	model := &fakeModel{
		response: "```json\n{\"title\":\"T\",\"description\":\"D\",\"questions\":[{\"question_title\":\"Q1\",\"question_options\":[\"A\",\"B\",\"C\",\"D\"],\"answer\":\"B\"}]}\n```",
	}
	svc := NewGeneratorServiceWithModel(model)

	quiz, err := svc.GenerateFromVideo(context.Background(), "https://youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quiz.Title != "T" {
		t.Errorf("unexpected title %q", quiz.Title)
	}
	if model.calls != 1 {
		t.Errorf("expected exactly one model call, got %d", model.calls)
	}
}

func TestGenerateFromVideo_ModelFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("provider unavailable")}
	svc := NewGeneratorServiceWithModel(model)

	_, err := svc.GenerateFromVideo(context.Background(), "https://youtube.com/watch?v=abc")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !strings.Contains(genErr.Error(), "provider unavailable") {
		t.Errorf("error should carry the cause: %v", genErr)
	}
	if model.calls != 1 {
		t.Errorf("expected exactly one model call (no retries), got %d", model.calls)
	}
}
