package rag

import "fmt"

// FallbackAnswer is the exact sentence the model is instructed to emit when
// the answer is not derivable from the supplied context. Downstream consumers
// pattern-match on it, so it must never be reworded.
const FallbackAnswer = "I cannot answer this question based on the available documents."

// BuildPrompt combines the assembled context and the user question into the
// generation prompt. The template states the context verbatim, restricts the
// model to it, and pins the fallback sentence.
func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf(
		"CONTEXT: %s\n\n"+
			"Based ONLY on the context above, answer: %s\n\n"+
			"If the answer is not in the context, respond exactly: '%s'\n\n"+
			"Answer:",
		contextText, question, FallbackAnswer,
	)
}
