package exercisegen

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"perpetua/internal/domain"
)

// Structural shape of each question variant. Cross-field rules (blank marker,
// answer membership, pair bijection) are checked in Go after decoding.
var questionSchemas = map[domain.ExerciseType]string{
	domain.ExerciseGrammar: `{
  "type": "object",
  "required": ["type", "sentence_template", "word_bank", "correct_word"],
  "properties": {
    "type": {"const": "grammar"},
    "sentence_template": {"type": "string", "minLength": 1},
    "word_bank": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 4,
      "maxItems": 4,
      "uniqueItems": true
    },
    "correct_word": {"type": "string", "minLength": 1}
  }
}`,
	domain.ExerciseDialogue: `{
  "type": "object",
  "required": ["type", "dialogue", "question", "options", "correct_answer"],
  "properties": {
    "type": {"const": "dialogue"},
    "dialogue": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["speaker", "line"],
        "properties": {
          "speaker": {"type": "string", "minLength": 1},
          "line": {"type": "string", "minLength": 1}
        }
      }
    },
    "question": {"type": "string", "minLength": 1},
    "options": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 2,
      "uniqueItems": true
    },
    "correct_answer": {"type": "string", "minLength": 1}
  }
}`,
	domain.ExerciseWordMatching: `{
  "type": "object",
  "required": ["type", "topic", "words", "meanings", "correct_pairs"],
  "properties": {
    "type": {"const": "word_matching"},
    "topic": {"type": "string", "minLength": 1},
    "words": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 1,
      "uniqueItems": true
    },
    "meanings": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 1,
      "uniqueItems": true
    },
    "correct_pairs": {
      "type": "object",
      "additionalProperties": {"type": "string", "minLength": 1}
    }
  }
}`,
}

func compileSchemas() (map[domain.ExerciseType]*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	compiled := make(map[domain.ExerciseType]*jsonschema.Schema, len(questionSchemas))

	for exerciseType, def := range questionSchemas {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(def))
		if err != nil {
			return nil, fmt.Errorf("parse %s schema: %w", exerciseType, err)
		}
		url := fmt.Sprintf("schema://perpetua/%s.json", exerciseType)
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", exerciseType, err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", exerciseType, err)
		}
		compiled[exerciseType] = sch
	}
	return compiled, nil
}
