package exercisegen

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"perpetua/internal/domain"
)

// ErrTopicPoolTooSmall is returned when fewer distinct topics exist than a
// word-matching session needs.
var ErrTopicPoolTooSmall = fmt.Errorf("topic pool must contain at least %d distinct topics", domain.SessionSize)

// DefaultTopics is the word-matching topic pool used when none is configured.
var DefaultTopics = []string{"Fruits", "Animals", "Family Members", "Colors", "Jobs", "Food", "Clothes"}

const defaultNativeLanguage = "Turkish"

// PromptBuilder renders the generation prompt for an exercise type and level.
// It is safe for concurrent use.
type PromptBuilder struct {
	topics         []string
	nativeLanguage string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPromptBuilder validates the topic pool up front. A nil rng seeds one from the clock.
func NewPromptBuilder(topics []string, nativeLanguage string, rng *rand.Rand) (*PromptBuilder, error) {
	pool := distinct(topics)
	if len(pool) < domain.SessionSize {
		return nil, ErrTopicPoolTooSmall
	}
	if nativeLanguage == "" {
		nativeLanguage = defaultNativeLanguage
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &PromptBuilder{topics: pool, nativeLanguage: nativeLanguage, rng: rng}, nil
}

// Build returns the prompt for exerciseType at level. Types outside the closed
// set yield domain.ErrUnsupportedExerciseType.
func (b *PromptBuilder) Build(exerciseType domain.ExerciseType, level string) (string, error) {
	switch exerciseType {
	case domain.ExerciseGrammar:
		return grammarPrompt(level), nil
	case domain.ExerciseDialogue:
		return dialoguePrompt(level), nil
	case domain.ExerciseWordMatching:
		topics, err := b.sampleTopics(domain.SessionSize)
		if err != nil {
			return "", err
		}
		return wordMatchingPrompt(level, topics, b.nativeLanguage), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExerciseType, exerciseType)
	}
}

// sampleTopics picks n distinct topics with a partial Fisher-Yates shuffle.
func (b *PromptBuilder) sampleTopics(n int) ([]string, error) {
	if len(b.topics) < n {
		return nil, ErrTopicPoolTooSmall
	}

	idx := make([]int, len(b.topics))
	for i := range idx {
		idx[i] = i
	}

	b.mu.Lock()
	for i := 0; i < n; i++ {
		j := i + b.rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	b.mu.Unlock()

	chosen := make([]string, n)
	for i := 0; i < n; i++ {
		chosen[i] = b.topics[idx[i]]
	}
	return chosen, nil
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

const outputRule = `Return ONLY a single JSON object with a "questions" key holding the list of question objects.
Do not add any commentary, explanation or Markdown before or after the JSON.`

func grammarPrompt(level string) string {
	return fmt.Sprintf(`You are an AI teacher of English for learners at CEFR level %[1]s.
Your task is to create %[2]d grammar questions in a "sentence completion" format for level %[1]s.

RULES:
1. Create exactly %[2]d question objects.
2. Every question has a "sentence_template" containing exactly one blank written as "%[3]s".
3. Every question has a "word_bank" of exactly %[4]d distinct words: 1 correct word and %[5]d plausible distractors.
4. "correct_word" must be one of the words in "word_bank".
5. VERY IMPORTANT: every question object MUST include the field "type": "grammar".
6. %[6]s

EXAMPLE OUTPUT FORMAT:
{
  "questions": [
    {
      "type": "grammar",
      "sentence_template": "She ___ an apple.",
      "word_bank": ["eat", "eats", "ate", "eating"],
      "correct_word": "eats"
    },
    {
      "type": "grammar",
      "sentence_template": "There ___ two cats on the roof.",
      "word_bank": ["is", "are", "am", "be"],
      "correct_word": "are"
    }
  ]
}

Now create the list of %[2]d questions for level %[1]s.`,
		level, domain.SessionSize, domain.BlankMarker, domain.WordBankSize, domain.WordBankSize-1, outputRule)
}

func dialoguePrompt(level string) string {
	return fmt.Sprintf(`You are an AI teacher of English for learners at CEFR level %[1]s.
Your task is to create %[2]d DIFFERENT questions in a "dialogue completion" format for level %[1]s.

RULES:
1. Create exactly %[2]d independent dialogue question objects.
2. For each question write a short dialogue of 2-3 lines between two people. The last line of the conversation is missing.
3. For each question give exactly 4 sensible options (1 correct, 3 wrong) in "options"; "correct_answer" must be copied exactly from "options".
4. VERY IMPORTANT: "dialogue" must be a LIST of OBJECTS, each with a "speaker" and a "line" key. NEVER use a list of plain strings.
5. VERY IMPORTANT: every question object MUST include the field "type": "dialogue".
6. %[3]s

EXAMPLE OUTPUT FORMAT (FOLLOW IT EXACTLY):
{
  "questions": [
    {
      "type": "dialogue",
      "dialogue": [
        {"speaker": "Shopkeeper", "line": "Hello, can I help you?"},
        {"speaker": "Customer", "line": "Yes, please. I'd like an apple."}
      ],
      "question": "What should the shopkeeper say next?",
      "options": ["Here you are.", "I am a doctor.", "My name is John.", "Thank you."],
      "correct_answer": "Here you are."
    }
  ]
}

Now create the list of %[2]d dialogue questions for level %[1]s, following the rules and the format to the letter.`,
		level, domain.SessionSize, outputRule)
}

func wordMatchingPrompt(level string, topics []string, nativeLanguage string) string {
	return fmt.Sprintf(`You are an AI teacher of English for learners at CEFR level %[1]s.
Your task is to create %[2]d DIFFERENT sets in a "word matching" format for level %[1]s.

RULES:
1. Create exactly %[2]d sets, one per topic, in this order: %[3]s.
2. For each topic pick 4 simple English words and their %[4]s meanings.
3. VERY IMPORTANT: shuffle the "words" list and the "meanings" list INDEPENDENTLY so their orders do not line up.
4. Also provide "correct_pairs": an object whose keys are exactly the English words and whose values are their correct %[4]s meanings. Every word appears exactly once.
5. VERY IMPORTANT: every set object MUST include the field "type": "word_matching" and its "topic".
6. %[5]s

EXAMPLE OUTPUT FORMAT:
{
  "questions": [
    {
      "type": "word_matching",
      "topic": "Fruits",
      "words": ["Apple", "Banana", "Orange", "Grape"],
      "meanings": ["Muz", "Portakal", "Elma", "Üzüm"],
      "correct_pairs": {
        "Apple": "Elma",
        "Banana": "Muz",
        "Orange": "Portakal",
        "Grape": "Üzüm"
      }
    }
  ]
}

Now create the %[2]d word matching sets for the topics above at level %[1]s, including the "correct_pairs" answer key.`,
		level, domain.SessionSize, strings.Join(topics, ", "), nativeLanguage, outputRule)
}
