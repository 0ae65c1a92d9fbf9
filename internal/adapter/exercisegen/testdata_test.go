package exercisegen

import (
	"encoding/json"
	"fmt"
)

func grammarItem(i int) map[string]any {
	return map[string]any{
		"type":              "grammar",
		"sentence_template": fmt.Sprintf("She ___ an apple number %d.", i),
		"word_bank":         []any{"eat", "eats", "ate", "eating"},
		"correct_word":      "eats",
	}
}

func dialogueItem(int) map[string]any {
	return map[string]any{
		"type": "dialogue",
		"dialogue": []any{
			map[string]any{"speaker": "Shopkeeper", "line": "Hello, can I help you?"},
			map[string]any{"speaker": "Customer", "line": "Yes, please. I'd like an apple."},
		},
		"question":       "What should the shopkeeper say next?",
		"options":        []any{"Here you are.", "I am a doctor.", "My name is John.", "Thank you."},
		"correct_answer": "Here you are.",
	}
}

func wordMatchingItem(int) map[string]any {
	return map[string]any{
		"type":     "word_matching",
		"topic":    "Fruits",
		"words":    []any{"Apple", "Banana", "Orange", "Grape"},
		"meanings": []any{"Muz", "Portakal", "Elma", "Üzüm"},
		"correct_pairs": map[string]any{
			"Apple":  "Elma",
			"Banana": "Muz",
			"Orange": "Portakal",
			"Grape":  "Üzüm",
		},
	}
}

func items(n int, build func(int) map[string]any) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = build(i)
	}
	return out
}

func sessionJSON(questions []map[string]any) []byte {
	b, err := json.Marshal(map[string]any{"questions": questions})
	if err != nil {
		panic(err)
	}
	return b
}
