package synthesis

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"campus-qa-be/pkg/llm"
	"campus-qa-be/pkg/store"
)

// maxContextDocuments bounds the JSON evidence block handed to the model.
const maxContextDocuments = 30

// gwaRule corrects the model's usual assumption about averages: in this
// grading system a LOWER general weighted average is the better one.
const gwaRule = "GWA (General Weighted Average) rule: a LOWER GWA is BETTER. " +
	"1.0 is the highest possible grade, 5.0 the lowest. When ranking students " +
	"by GWA, the smallest number wins."

const answerContract = `Answer rules:
- Open with a direct answer to the question before any elaboration.
- Cite the source_collection of every fact, e.g. (from: students).
- If the context status is "empty" or "error", say plainly that the records
  were not found; NEVER invent names, grades, schedules or any other fact.
- When a document contains a list, reproduce the list verbatim instead of
  summarizing it.
- ` + gwaRule

// Generator produces the final user-facing answer from retrieved evidence.
type Generator struct {
	client *llm.Client
	logger *log.Logger
}

func NewGenerator(client *llm.Client, logger *log.Logger) *Generator {
	return &Generator{client: client, logger: logger}
}

// Generate renders the evidence as a bounded JSON context and asks the
// synthesis model for the answer. It never returns an error; the client's
// apologetic fallback string is the worst case.
func (g *Generator) Generate(ctx context.Context, query, status, note string, docs []store.Document, history []llm.Message) string {
	var prompt strings.Builder

	prompt.WriteString("<retrieved_context status=\"")
	prompt.WriteString(status)
	prompt.WriteString("\">\n")
	prompt.WriteString(contextJSON(docs, note))
	prompt.WriteString("\n</retrieved_context>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</question>\n\n")
	prompt.WriteString("Answer the question using ONLY the retrieved context above.\n")

	return g.client.Execute(ctx, llm.Request{
		SystemPrompt: "You are a helpful school records assistant.\n\n" + answerContract,
		UserPrompt:   prompt.String(),
		History:      history,
		Phase:        llm.PhaseSynthesis,
	})
}

// AnswerAbout is the focused variant used by person-scoped tools: answer
// one narrow question from one person's documents, nothing else.
func (g *Generator) AnswerAbout(ctx context.Context, question string, docs []store.Document) string {
	var prompt strings.Builder
	prompt.WriteString("<person_documents>\n")
	prompt.WriteString(contextJSON(docs, ""))
	prompt.WriteString("\n</person_documents>\n\n")
	prompt.WriteString("Answer ONLY this question, from ONLY these documents: ")
	prompt.WriteString(question)
	prompt.WriteString("\n")

	return g.client.Execute(ctx, llm.Request{
		SystemPrompt: "You answer one narrow question about one person from the documents given.\n\n" + answerContract,
		UserPrompt:   prompt.String(),
		Phase:        llm.PhaseSynthesis,
	})
}

type contextDoc struct {
	SourceCollection string                 `json:"source_collection"`
	Content          string                 `json:"content"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

func contextJSON(docs []store.Document, note string) string {
	if len(docs) > maxContextDocuments {
		docs = docs[:maxContextDocuments]
	}

	payload := struct {
		Note      string       `json:"note,omitempty"`
		Documents []contextDoc `json:"documents"`
	}{Note: note, Documents: make([]contextDoc, 0, len(docs))}

	for _, d := range docs {
		payload.Documents = append(payload.Documents, contextDoc{
			SourceCollection: d.SourceCollection,
			Content:          d.Content,
			Metadata:         d.Metadata,
		})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return `{"documents": []}`
	}
	return string(raw)
}
