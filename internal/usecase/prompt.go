package usecase

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"coursetutor/internal/domain"
	"coursetutor/internal/port"
)

// SystemPrompt frames every answer request.
const SystemPrompt = "You are a helpful teaching assistant that guides students to relevant course content."

const defaultGenerateTimeout = 45 * time.Second

//go:embed templates/answer_prompt.txt
var answerPromptText string

var answerPrompt = template.Must(template.New("answer").Parse(answerPromptText))

type promptSource struct {
	Title  string
	Number string
	Range  string
	Text   string
}

type promptData struct {
	CourseName string
	Question   string
	Sources    []promptSource
}

// RenderPrompt builds the user prompt for question from the retrieved chunks.
func RenderPrompt(courseName, question string, result domain.RetrievalResult) (string, error) {
	data := promptData{
		CourseName: courseName,
		Question:   question,
		Sources:    make([]promptSource, 0, len(result)),
	}
	for _, sc := range result {
		title := sc.Chunk.VideoTitle
		if title == "" {
			title = sc.Chunk.VideoID
		}
		data.Sources = append(data.Sources, promptSource{
			Title:  title,
			Number: sc.Chunk.VideoNumber,
			Range:  sc.Chunk.TimeRange(),
			Text:   sc.Chunk.Text,
		})
	}

	var sb strings.Builder
	if err := answerPrompt.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}

// GenerateOptions parameterizes one answer request.
type GenerateOptions struct {
	CourseName  string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Generator turns retrieved chunks into a grounded answer using an LLM.
type Generator struct {
	opts GenerateOptions
}

func NewGenerator(opts GenerateOptions) *Generator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultGenerateTimeout
	}
	return &Generator{opts: opts}
}

// Generate asks provider to answer question from result. Exceeding the
// configured timeout yields an LLMProviderError of kind timeout.
func (g *Generator) Generate(ctx context.Context, question string, result domain.RetrievalResult, provider port.LLM) (string, error) {
	prompt, err := RenderPrompt(g.opts.CourseName, question, result)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	answer, err := provider.Generate(ctx, port.GenerateRequest{
		System:      SystemPrompt,
		Prompt:      prompt,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			var pe *domain.LLMProviderError
			if !errors.As(err, &pe) || pe.Kind != domain.LLMTimeout {
				return "", &domain.LLMProviderError{
					Provider: provider.ProviderName(),
					Kind:     domain.LLMTimeout,
					Message:  fmt.Sprintf("no answer within %s", g.opts.Timeout),
					Err:      err,
				}
			}
		}
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", &domain.LLMProviderError{
			Provider: provider.ProviderName(),
			Kind:     domain.LLMMalformed,
			Message:  "empty answer",
		}
	}
	return answer, nil
}
