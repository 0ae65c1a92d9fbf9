package dto

import "perpetua/internal/domain"

// WrongAnswerRequest is one incorrect answer reported by the client.
type WrongAnswerRequest struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

// EvaluationRequest is the body of POST /exercise/evaluate.
// @Description Summary of a finished exercise session
type EvaluationRequest struct {
	TotalQuestions int                  `json:"total_questions"`
	CorrectAnswers int                  `json:"correct_answers"`
	FinalScore     *int                 `json:"final_score,omitempty"`
	WrongAnswers   []WrongAnswerRequest `json:"wrong_answers"`
}

// ToPayload maps the request onto the domain payload.
func (r EvaluationRequest) ToPayload() domain.EvaluationPayload {
	wrong := make([]domain.WrongAnswer, 0, len(r.WrongAnswers))
	for _, w := range r.WrongAnswers {
		wrong = append(wrong, domain.WrongAnswer{
			Question:      w.Question,
			UserAnswer:    w.UserAnswer,
			CorrectAnswer: w.CorrectAnswer,
		})
	}
	return domain.EvaluationPayload{
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		FinalScore:     r.FinalScore,
		WrongAnswers:   wrong,
	}
}

// EvaluationResponse carries the score and the model's feedback.
// @Description Evaluation result
type EvaluationResponse struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// ExerciseSessionResponse is a generated session. Questions keep their
// per-type shape.
// @Description Freshly generated exercise session
type ExerciseSessionResponse struct {
	ExerciseType string            `json:"exercise_type"`
	Questions    []domain.Question `json:"questions"`
}

// NewExerciseSessionResponse converts a domain session for the API.
func NewExerciseSessionResponse(s *domain.ExerciseSession) *ExerciseSessionResponse {
	return &ExerciseSessionResponse{
		ExerciseType: string(s.ExerciseType),
		Questions:    s.Questions,
	}
}
