package exercisegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"perpetua/internal/domain"
)

// NormalizerOptions relaxes the default strict policy.
type NormalizerOptions struct {
	// AllowPartial accepts sessions with 1 to SessionSize questions.
	AllowPartial bool
	// InferMissingType assigns the expected type to elements that omit it
	// instead of rejecting them.
	InferMissingType bool
}

// Normalizer turns decoded model output into a typed ExerciseSession.
type Normalizer struct {
	opts    NormalizerOptions
	schemas map[domain.ExerciseType]*jsonschema.Schema
}

func NewNormalizer(opts NormalizerOptions) (*Normalizer, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Normalizer{opts: opts, schemas: schemas}, nil
}

func malformed(index int, format string, args ...any) *domain.MalformedExerciseError {
	return &domain.MalformedExerciseError{Index: index, Reason: fmt.Sprintf(format, args...)}
}

// Normalize validates raw and returns a session whose questions all have type
// expected. Any bad element rejects the whole session with a
// *domain.MalformedExerciseError.
func (n *Normalizer) Normalize(raw []byte, expected domain.ExerciseType) (*domain.ExerciseSession, error) {
	if !expected.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedExerciseType, expected)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return nil, malformed(-1, "top-level value is not a JSON object")
	}
	rawQuestions, ok := top["questions"]
	if !ok {
		return nil, malformed(-1, `missing "questions" key`)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawQuestions, &items); err != nil {
		return nil, malformed(-1, `"questions" is not an array`)
	}

	switch {
	case len(items) == domain.SessionSize:
	case n.opts.AllowPartial && len(items) > 0 && len(items) < domain.SessionSize:
	default:
		return nil, malformed(-1, "expected %d questions, got %d", domain.SessionSize, len(items))
	}

	questions := make([]domain.Question, 0, len(items))
	for i, item := range items {
		q, err := n.normalizeQuestion(i, item, expected)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return &domain.ExerciseSession{ExerciseType: expected, Questions: questions}, nil
}

func (n *Normalizer) normalizeQuestion(index int, item json.RawMessage, expected domain.ExerciseType) (domain.Question, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(item))
	if err != nil {
		return nil, malformed(index, "invalid JSON: %v", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, malformed(index, "question is not a JSON object")
	}

	tag, present := obj["type"]
	switch {
	case !present && n.opts.InferMissingType:
		obj["type"] = string(expected)
		if item, err = json.Marshal(obj); err != nil {
			return nil, malformed(index, "re-encode question: %v", err)
		}
	case !present:
		return nil, malformed(index, `missing "type" discriminant`)
	case tag != string(expected):
		return nil, malformed(index, "type %v does not match session type %q", tag, expected)
	}

	if err := n.schemas[expected].Validate(obj); err != nil {
		return nil, malformed(index, "schema validation failed: %v", err)
	}

	switch expected {
	case domain.ExerciseGrammar:
		var q domain.GrammarQuestion
		if err := json.Unmarshal(item, &q); err != nil {
			return nil, malformed(index, "decode grammar question: %v", err)
		}
		if reason := checkGrammar(&q); reason != "" {
			return nil, malformed(index, "%s", reason)
		}
		return &q, nil
	case domain.ExerciseDialogue:
		var q domain.DialogueQuestion
		if err := json.Unmarshal(item, &q); err != nil {
			return nil, malformed(index, "decode dialogue question: %v", err)
		}
		if reason := checkDialogue(&q); reason != "" {
			return nil, malformed(index, "%s", reason)
		}
		return &q, nil
	default:
		var q domain.WordMatchingQuestion
		if err := json.Unmarshal(item, &q); err != nil {
			return nil, malformed(index, "decode word matching question: %v", err)
		}
		if reason := checkWordMatching(&q); reason != "" {
			return nil, malformed(index, "%s", reason)
		}
		return &q, nil
	}
}

func checkGrammar(q *domain.GrammarQuestion) string {
	if c := strings.Count(q.SentenceTemplate, domain.BlankMarker); c != 1 {
		return fmt.Sprintf("sentence template must contain exactly one %q blank, found %d", domain.BlankMarker, c)
	}
	if len(q.WordBank) != domain.WordBankSize {
		return fmt.Sprintf("word bank must have exactly %d entries, got %d", domain.WordBankSize, len(q.WordBank))
	}
	seen := make(map[string]struct{}, len(q.WordBank))
	for _, w := range q.WordBank {
		if _, dup := seen[w]; dup {
			return fmt.Sprintf("word bank entry %q is repeated", w)
		}
		seen[w] = struct{}{}
	}
	if _, ok := seen[q.CorrectWord]; !ok {
		return fmt.Sprintf("correct word %q is not in the word bank", q.CorrectWord)
	}
	return ""
}

func checkDialogue(q *domain.DialogueQuestion) string {
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return ""
		}
	}
	return fmt.Sprintf("correct answer %q is not among the options", q.CorrectAnswer)
}

// checkWordMatching requires CorrectPairs to be a bijection from Words onto Meanings.
func checkWordMatching(q *domain.WordMatchingQuestion) string {
	if len(q.CorrectPairs) != len(q.Words) {
		return fmt.Sprintf("correct_pairs has %d keys but there are %d words", len(q.CorrectPairs), len(q.Words))
	}
	if len(q.Meanings) != len(q.Words) {
		return fmt.Sprintf("got %d meanings for %d words", len(q.Meanings), len(q.Words))
	}
	for _, w := range q.Words {
		if _, ok := q.CorrectPairs[w]; !ok {
			return fmt.Sprintf("word %q has no entry in correct_pairs", w)
		}
	}

	meanings := make(map[string]struct{}, len(q.Meanings))
	for _, m := range q.Meanings {
		meanings[m] = struct{}{}
	}
	used := make(map[string]struct{}, len(q.CorrectPairs))
	for w, m := range q.CorrectPairs {
		if _, ok := meanings[m]; !ok {
			return fmt.Sprintf("meaning %q for word %q is not in the meanings list", m, w)
		}
		if _, dup := used[m]; dup {
			return fmt.Sprintf("meaning %q is paired with more than one word", m)
		}
		used[m] = struct{}{}
	}
	return ""
}
