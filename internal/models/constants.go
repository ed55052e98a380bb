package models

const (
	// SourceTagFormat labels each retrieved chunk in the prompt with its
	// chunk index so the answer can be traced back to the document.
	SourceTagFormat = "[Source %d]\n%s"

	ContextSeparator = "\n---\n"

	// NoContextMessage is the user-facing text of a failure answer when
	// retrieval produced nothing to ground the model on.
	NoContextMessage = "I could not find any relevant content in the document to answer this question."
)

var AnswerPromptTemplate = `Use the following context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context:
%s

Question: %s

Answer:`
