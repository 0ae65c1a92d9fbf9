package validation

import (
	"regexp"
	"strconv"
	"strings"

	"perpetua/internal/domain"
)

const (
	maxAnswerLength   = 1000 // user_mistakes text column width, in bytes
	maxUsernameLength = 30
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything longer
	MaxListLimit      = 100
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEvaluationPayload checks a finished-session summary before any AI call.
// final_score is required only when the caller's score is trusted.
func (v *Validator) ValidateEvaluationPayload(p domain.EvaluationPayload, policy domain.ScoringPolicy) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if p.TotalQuestions <= 0 {
		errors = append(errors, domain.NewOutOfRangeError("total_questions", p.TotalQuestions, 1, domain.SessionSize))
	} else if p.CorrectAnswers < 0 || p.CorrectAnswers > p.TotalQuestions {
		errors = append(errors, domain.NewOutOfRangeError("correct_answers", p.CorrectAnswers, 0, p.TotalQuestions))
	}

	if p.FinalScore != nil {
		if *p.FinalScore < domain.MinScore || *p.FinalScore > domain.MaxScore {
			errors = append(errors, domain.NewOutOfRangeError("final_score", *p.FinalScore, domain.MinScore, domain.MaxScore))
		}
	} else if policy == domain.ScoringCaller {
		errors = append(errors, domain.NewMissingFieldError("final_score"))
	}

	for i, w := range p.WrongAnswers {
		errors = append(errors, validateWrongAnswer(i, w)...)
	}
	return errors
}

func validateWrongAnswer(i int, w domain.WrongAnswer) domain.ValidationErrors {
	var errors domain.ValidationErrors
	fields := []struct {
		name     string
		value    string
		optional bool
	}{
		{"question", w.Question, false},
		{"user_answer", w.UserAnswer, true}, // empty when the question was skipped
		{"correct_answer", w.CorrectAnswer, false},
	}
	for _, f := range fields {
		name := "wrong_answers[" + strconv.Itoa(i) + "]." + f.name
		switch {
		case !f.optional && strings.TrimSpace(f.value) == "":
			errors = append(errors, domain.NewMissingFieldError(name))
		case len(f.value) > maxAnswerLength:
			errors = append(errors, domain.NewOutOfRangeError(name, len(f.value), 0, maxAnswerLength))
		}
	}
	return errors
}

// ValidateRegisterRequest validates account creation input.
func (v *Validator) ValidateRegisterRequest(email, username, password string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	errors = append(errors, validateEmail(email)...)

	switch {
	case strings.TrimSpace(username) == "":
		errors = append(errors, domain.NewMissingFieldError("username"))
	case len(username) > maxUsernameLength:
		errors = append(errors, domain.NewOutOfRangeError("username", len(username), 1, maxUsernameLength))
	case !usernamePattern.MatchString(username):
		errors = append(errors, domain.NewInvalidFormatError("username", username))
	}

	switch {
	case password == "":
		errors = append(errors, domain.NewMissingFieldError("password"))
	case len(password) < minPasswordLength || len(password) > maxPasswordLength:
		errors = append(errors, domain.NewOutOfRangeError("password", len(password), minPasswordLength, maxPasswordLength))
	}
	return errors
}

// ValidateLoginRequest validates password login input.
func (v *Validator) ValidateLoginRequest(email, password string) domain.ValidationErrors {
	errors := validateEmail(email)
	if password == "" {
		errors = append(errors, domain.NewMissingFieldError("password"))
	}
	return errors
}

// ValidateLevel validates a CEFR level tag.
func (v *Validator) ValidateLevel(level string) domain.ValidationErrors {
	if strings.TrimSpace(level) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("level")}
	}
	if !domain.IsValidLevel(level) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("level", level)}
	}
	return nil
}

// ValidateLimit validates a list size query parameter.
func (v *Validator) ValidateLimit(limit int) domain.ValidationErrors {
	if limit <= 0 || limit > MaxListLimit {
		return domain.ValidationErrors{domain.NewOutOfRangeError("limit", limit, 1, MaxListLimit)}
	}
	return nil
}

func validateEmail(email string) domain.ValidationErrors {
	if strings.TrimSpace(email) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("email")}
	}
	if !emailPattern.MatchString(email) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("email", email)}
	}
	return nil
}
