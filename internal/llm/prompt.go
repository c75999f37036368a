package llm

import (
	"fmt"
	"strings"

	"github.com/nao1215/ragcrawl/internal/model"
)

// hydeSystemMessage instructs the model to write a hypothetical document
// for hypothetical document embedding (HyDE).
const hydeSystemMessage = "You are used to create hypothetical documents for hypothetical document embedding. " +
	"Ensure that your responses will have enough relevance to the probable answer " +
	"that it will retrieve the proper documents from a similarity search."

const promptInstructions = `The CONTEXT above are snippets of similar text towards the users question.
Answer the users QUESTION using the CONTEXT text above.
Keep your answer ground in the facts of the CONTEXT.
If the CONTEXT doesn't contain the facts to answer the QUESTION then try to answer without the CONTEXT.
Explicitly say at the end of your statement whether the context was used to make your answer.`

// BuildPrompt renders the user message sent with a question.
func BuildPrompt(retrieved, question string) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	b.WriteString(retrieved)
	b.WriteString("\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\nINSTRUCTIONS:\n")
	b.WriteString(promptInstructions)
	return b.String()
}

// FormatContext joins retrieved chunks into the CONTEXT block, best first,
// one numbered snippet per chunk.
func FormatContext(hits []model.ScoredText) string {
	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, h.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
