package domain

import (
	"context"
	"fmt"
	"math"
)

const (
	MinScore = 0
	MaxScore = 100
)

// ScoringPolicy decides who computes the score of a finished session.
type ScoringPolicy string

const (
	// ScoringServer computes round(correct/total*100) on the server; the model only writes feedback.
	ScoringServer ScoringPolicy = "server"
	// ScoringCaller passes the client's final_score through verbatim.
	ScoringCaller ScoringPolicy = "caller"
	// ScoringModel asks the model to compute the score itself.
	ScoringModel ScoringPolicy = "model"
)

func ParseScoringPolicy(s string) (ScoringPolicy, error) {
	switch p := ScoringPolicy(s); p {
	case ScoringServer, ScoringCaller, ScoringModel:
		return p, nil
	}
	return "", fmt.Errorf("unknown scoring policy %q", s)
}

// WrongAnswer is one incorrect answer from a completed session.
type WrongAnswer struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

// EvaluationPayload is what the client submits after finishing a session.
type EvaluationPayload struct {
	TotalQuestions int           `json:"total_questions"`
	CorrectAnswers int           `json:"correct_answers"`
	FinalScore     *int          `json:"final_score,omitempty"`
	WrongAnswers   []WrongAnswer `json:"wrong_answers"`
}

// EvaluationResult is returned to the client and added to the weekly score.
type EvaluationResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// ClampScore forces a score into [MinScore, MaxScore].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// ComputeScore returns round(correct/total*100), clamped. A non-positive total scores 0.
func ComputeScore(correct, total int) int {
	if total <= 0 {
		return MinScore
	}
	return ClampScore(int(math.Round(float64(correct) / float64(total) * 100)))
}

// Evaluator scores a completed session and writes feedback. It never fails:
// on AI trouble it returns a safe default result.
type Evaluator interface {
	Evaluate(ctx context.Context, payload EvaluationPayload, username string) EvaluationResult
}
