package services

import (
	"context"
	"strings"
)

type Generator interface {
	Generate(ctx context.Context, topic, prompt string) (string, error)
}

// GenerateService exposes raw generation for previewing a prompt.
type GenerateService interface {
	Generate(ctx context.Context, topic, prompt string) (string, error)
}

type generateService struct {
	gen Generator
}

func NewGenerateService(gen Generator) GenerateService {
	return &generateService{gen: gen}
}

func (s *generateService) Generate(ctx context.Context, topic, prompt string) (string, error) {
	const op = "generate.Generate"

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", validationError(op, "topic is required")
	}
	prompt, err := validatePrompt(op, prompt)
	if err != nil {
		return "", err
	}
	text, err := s.gen.Generate(ctx, topic, prompt)
	if err != nil {
		return "", modelError(op, err)
	}
	return text, nil
}
