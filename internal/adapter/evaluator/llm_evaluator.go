package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"perpetua/internal/domain"
	"perpetua/internal/logger"
)

// SafeFeedback is returned with a zero score whenever the model cannot be used.
const SafeFeedback = "Something went wrong while evaluating your exercise. Please try again."

// DefaultTemperature keeps scoring-adjacent text stable.
const DefaultTemperature = 0.3

// Band thresholds for feedback tone.
const (
	highBandMin   = 80
	mediumBandMin = 50
)

// ScoreBand classifies a score as "high", "medium" or "low".
func ScoreBand(score int) string {
	switch {
	case score >= highBandMin:
		return "high"
	case score >= mediumBandMin:
		return "medium"
	default:
		return "low"
	}
}

// llmEvaluator implements domain.Evaluator
type llmEvaluator struct {
	gateway     domain.TextGenerator
	policy      domain.ScoringPolicy
	temperature float64
}

// NewLLMEvaluator creates a new evaluator. An empty policy means ScoringServer
// and a non-positive temperature means DefaultTemperature.
func NewLLMEvaluator(gateway domain.TextGenerator, policy domain.ScoringPolicy, temperature float64) domain.Evaluator {
	if policy == "" {
		policy = domain.ScoringServer
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &llmEvaluator{gateway: gateway, policy: policy, temperature: temperature}
}

type evaluationResponse struct {
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback"`
}

func safeDefault() domain.EvaluationResult {
	return domain.EvaluationResult{Score: 0, Feedback: SafeFeedback}
}

// Evaluate implements domain.Evaluator
func (e *llmEvaluator) Evaluate(ctx context.Context, payload domain.EvaluationPayload, username string) domain.EvaluationResult {
	l := logger.Get()

	score, known := e.fixedScore(payload)
	prompt := e.buildPrompt(payload, username, score, known)

	var resp evaluationResponse
	if err := e.gateway.GenerateJSON(ctx, prompt, domain.WithTemperature(e.temperature), &resp); err != nil {
		l.Error("Evaluation fell back to safe default",
			zap.String("username", username),
			zap.String("policy", string(e.policy)),
			zap.Error(err))
		return safeDefault()
	}

	feedback := strings.TrimSpace(resp.Feedback)
	if feedback == "" {
		l.Error("Evaluation fell back to safe default: empty feedback", zap.String("username", username))
		return safeDefault()
	}

	if !known {
		if resp.Score == nil {
			l.Error("Evaluation fell back to safe default: model omitted score", zap.String("username", username))
			return safeDefault()
		}
		// Clamp before converting: a huge float overflows int.
		raw := *resp.Score
		clamped := math.Max(domain.MinScore, math.Min(domain.MaxScore, raw))
		score = int(math.Round(clamped))
		if clamped != raw {
			l.Warn("Model returned out-of-range score", zap.Float64("model_score", raw), zap.Int("clamped", score))
		}
	}

	l.Info("Exercise evaluated",
		zap.String("username", username),
		zap.String("policy", string(e.policy)),
		zap.Int("score", score),
		zap.String("band", ScoreBand(score)))
	return domain.EvaluationResult{Score: score, Feedback: feedback}
}

// fixedScore returns the score decided before the model is called, if the
// policy decides one. A caller policy without final_score falls back to the
// server computation.
func (e *llmEvaluator) fixedScore(p domain.EvaluationPayload) (int, bool) {
	switch e.policy {
	case domain.ScoringModel:
		return 0, false
	case domain.ScoringCaller:
		if p.FinalScore != nil {
			return domain.ClampScore(*p.FinalScore), true
		}
	}
	return domain.ComputeScore(p.CorrectAnswers, p.TotalQuestions), true
}

func (e *llmEvaluator) buildPrompt(p domain.EvaluationPayload, username string, score int, known bool) string {
	var mistakes strings.Builder
	if len(p.WrongAnswers) == 0 {
		mistakes.WriteString("None.\n")
	}
	for _, w := range p.WrongAnswers {
		fmt.Fprintf(&mistakes, "- Question: %q, %s's answer: %q, correct answer: %q\n", w.Question, username, w.UserAnswer, w.CorrectAnswer)
	}

	var scoreLine, scoreRule, scoreField string
	if known {
		scoreLine = fmt.Sprintf("- Final score: %d (%s band)", score, ScoreBand(score))
		scoreRule = "Do NOT recalculate the score. Use the final score given above as is."
		scoreField = fmt.Sprintf("%d", score)
	} else {
		scoreLine = "- Final score: not computed yet"
		scoreRule = "Compute the score yourself as round(correct answers / total questions * 100), an integer between 0 and 100, and pick the tone from that score."
		scoreField = "<integer score you computed>"
	}

	return fmt.Sprintf(`You are a personal AI teacher in a language learning app called Perpetua. The student's name is %[1]s.
%[1]s has just finished an exercise. Here is the performance:

%[2]s
- Total questions: %[3]d
- Correct answers: %[4]d
- Specific mistakes:
%[5]s
YOUR TASK:
Write a 1-2 sentence personal comment addressed to %[1]s by name, in a positive and encouraging tone.
- If the score is high (80 or above), praise their speed and accuracy.
- If the score is medium (50 to 79), appreciate the effort and gently name what they struggled with.
- If the score is low (below 50), stress that mistakes are part of learning and keep their spirits up.
- If there are mistakes, pick AT MOST ONE of them and briefly explain the rule behind the correct answer.

%[6]s
Return ONLY a JSON object in exactly this format, with no other text:
{
  "score": %[7]s,
  "feedback": "<your comment for %[1]s>"
}`,
		username, scoreLine, p.TotalQuestions, p.CorrectAnswers, mistakes.String(), scoreRule, scoreField)
}
