package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/metrics"
)

const (
	AdviceEmptyFallback   = "I'm analyzing the architectural logs. Please wait."
	AdviceOfflineFallback = "Architect is currently offline. Please check your API configuration."
)

// AdviceService turns a chat question into a prompt for the text generator.
// It never returns an error: every failure becomes a fallback sentence.
type AdviceService struct {
	generator domain.TextGenerator
	model     string
	timeout   time.Duration
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// NewAdviceService accepts a nil generator, which keeps the advisor offline.
func NewAdviceService(generator domain.TextGenerator, model string, recorder *metrics.Recorder, logger *slog.Logger) *AdviceService {
	return &AdviceService{
		generator: generator,
		model:     model,
		timeout:   30 * time.Second,
		metrics:   recorder,
		logger:    logger,
	}
}

// GetAdvice is stateless: the caller re-supplies any context on each call.
func (s *AdviceService) GetAdvice(ctx context.Context, query string, project *domain.ProjectContext) string {
	if s.generator == nil {
		s.metrics.Advice("offline")
		return AdviceOfflineFallback
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.GenerateText(ctx, s.model, BuildAdvicePrompt(query, project))
	if err != nil {
		s.logger.Warn("Advice service unavailable", slog.Any("error", err))
		s.metrics.Advice("offline")
		return AdviceOfflineFallback
	}
	if strings.TrimSpace(text) == "" {
		s.metrics.Advice("empty")
		return AdviceEmptyFallback
	}

	s.metrics.Advice("ok")
	return text
}

// BuildAdvicePrompt composes the single prompt string sent to the model.
func BuildAdvicePrompt(query string, project *domain.ProjectContext) string {
	scope := "The user is in the general dashboard."
	if project != nil {
		scope = fmt.Sprintf("Current Project: %s (%s). Status: %s.", project.Name, project.Framework, project.Status)
	}

	var b strings.Builder
	b.WriteString("You are the \"ReactHost Pro Architect\". You help developers deploy React applications.\n")
	fmt.Fprintf(&b, "Context: %s\n", scope)
	fmt.Fprintf(&b, "User Query: %s\n\n", query)
	b.WriteString("Rules:\n")
	b.WriteString("1. Give technical, professional, but friendly advice.\n")
	b.WriteString("2. Use Markdown for formatting.\n")
	b.WriteString("3. If they ask about build errors, suggest checking package.json or public folder.\n")
	b.WriteString("4. Keep it concise (max 4 sentences).\n")
	return b.String()
}
