package domain

import (
	"context"
	"fmt"
	"strings"
)

// ExerciseType is the discriminant shared by a session and each of its questions.
type ExerciseType string

const (
	ExerciseGrammar      ExerciseType = "grammar"
	ExerciseDialogue     ExerciseType = "dialogue"
	ExerciseWordMatching ExerciseType = "word_matching"
)

const (
	// SessionSize is the number of questions in every generated session.
	SessionSize = 5
	// WordBankSize is the number of candidates offered for a grammar blank.
	WordBankSize = 4
	// BlankMarker marks the gap in a grammar sentence template.
	BlankMarker = "___"
)

// AllExerciseTypes lists the closed set of supported exercise types.
func AllExerciseTypes() []ExerciseType {
	return []ExerciseType{ExerciseGrammar, ExerciseDialogue, ExerciseWordMatching}
}

// Valid reports whether t belongs to the closed set.
func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseGrammar, ExerciseDialogue, ExerciseWordMatching:
		return true
	}
	return false
}

// ParseExerciseType converts client input into an ExerciseType.
func ParseExerciseType(s string) (ExerciseType, error) {
	t := ExerciseType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExerciseType, s)
	}
	return t, nil
}

// Question is one element of an ExerciseSession. Concrete types are
// *GrammarQuestion, *DialogueQuestion and *WordMatchingQuestion.
type Question interface {
	ExerciseType() ExerciseType
}

// GrammarQuestion asks the learner to fill the blank in SentenceTemplate.
type GrammarQuestion struct {
	Type             ExerciseType `json:"type"`
	SentenceTemplate string       `json:"sentence_template"`
	WordBank         []string     `json:"word_bank"`
	CorrectWord      string       `json:"correct_word"`
}

func (q *GrammarQuestion) ExerciseType() ExerciseType { return ExerciseGrammar }

// DialogueTurn is one line of a partial conversation.
type DialogueTurn struct {
	Speaker string `json:"speaker"`
	Line    string `json:"line"`
}

// DialogueQuestion asks the learner to pick the best continuation of a conversation.
type DialogueQuestion struct {
	Type          ExerciseType   `json:"type"`
	Dialogue      []DialogueTurn `json:"dialogue"`
	Question      string         `json:"question"`
	Options       []string       `json:"options"`
	CorrectAnswer string         `json:"correct_answer"`
}

func (q *DialogueQuestion) ExerciseType() ExerciseType { return ExerciseDialogue }

// WordMatchingQuestion pairs words with meanings. List order carries no
// correctness signal; CorrectPairs is the ground truth.
type WordMatchingQuestion struct {
	Type         ExerciseType      `json:"type"`
	Topic        string            `json:"topic"`
	Words        []string          `json:"words"`
	Meanings     []string          `json:"meanings"`
	CorrectPairs map[string]string `json:"correct_pairs"`
}

func (q *WordMatchingQuestion) ExerciseType() ExerciseType { return ExerciseWordMatching }

// ExerciseSession is a freshly generated set of questions. It is never persisted.
type ExerciseSession struct {
	ExerciseType ExerciseType `json:"exercise_type"`
	Questions    []Question   `json:"questions"`
}

// MalformedExerciseError reports why AI output could not become a session.
// Index is the offending question position, or -1 for session-level problems.
type MalformedExerciseError struct {
	Index  int
	Reason string
}

func (e *MalformedExerciseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed exercise session: %s", e.Reason)
	}
	return fmt.Sprintf("malformed question %d: %s", e.Index, e.Reason)
}

// ExerciseGenerator produces a validated session for a learner level.
type ExerciseGenerator interface {
	Generate(ctx context.Context, exerciseType ExerciseType, level string) (*ExerciseSession, error)
}
