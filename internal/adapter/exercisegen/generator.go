package exercisegen

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"perpetua/internal/domain"
	"perpetua/internal/logger"
)

// Generator runs the prompt, model call and normalization steps for one session.
type Generator struct {
	prompts    *PromptBuilder
	gateway    domain.TextGenerator
	normalizer *Normalizer
}

func NewGenerator(prompts *PromptBuilder, gateway domain.TextGenerator, normalizer *Normalizer) *Generator {
	return &Generator{prompts: prompts, gateway: gateway, normalizer: normalizer}
}

// Generate returns a validated session. Unsupported types fail before any model call.
func (g *Generator) Generate(ctx context.Context, exerciseType domain.ExerciseType, level string) (*domain.ExerciseSession, error) {
	l := logger.Get()

	prompt, err := g.prompts.Build(exerciseType, level)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var raw json.RawMessage
	if err := g.gateway.GenerateJSON(ctx, prompt, domain.GenerationOptions{}, &raw); err != nil {
		l.Error("Exercise generation call failed",
			zap.String("exercise_type", string(exerciseType)),
			zap.String("level", level),
			zap.Error(err))
		return nil, err
	}

	session, err := g.normalizer.Normalize(raw, exerciseType)
	if err != nil {
		l.Warn("Generated exercise rejected",
			zap.String("exercise_type", string(exerciseType)),
			zap.String("level", level),
			zap.Error(err))
		return nil, err
	}

	l.Info("Exercise session generated",
		zap.String("exercise_type", string(exerciseType)),
		zap.String("level", level),
		zap.Int("questions", len(session.Questions)),
		zap.Duration("elapsed", time.Since(start)))
	return session, nil
}

var _ domain.ExerciseGenerator = (*Generator)(nil)
