package models

const (
	// DefaultTopK is the number of corpus chunks retrieved per question.
	DefaultTopK = 3

	// DateKeyFormat keys conversation history by day.
	DateKeyFormat = "2006-01-02"
)

const (
	SystemPrompt = "You are EduGPT, a helpful educational assistant. Provide clear, accurate, and educational responses."

	// ContextPromptTemplate is used when assembled context is non-empty;
	// the generator must answer from the supplied context.
	ContextPromptTemplate = "Context: %s\n\nQuestion: %s\n\nAnswer this question based on the context provided:"

	// GeneralPromptTemplate is used when no context could be assembled.
	GeneralPromptTemplate = "Question: %s\n\nProvide a helpful educational answer:"
)
