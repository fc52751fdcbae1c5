package rag

import (
	"fmt"
	"strings"

	"github.com/finch-ai/finch/internal/memory"
	"github.com/finch-ai/finch/internal/session"
)

const (
	// ExcerptLimit caps the content excerpt included per context item.
	ExcerptLimit = 1000

	// HistoryWindow is the number of trailing conversation turns included in
	// the prompt verbatim.
	HistoryWindow = 6
)

const promptInstructions = `You are a project assistant. Answer the question using only the context provided below.
Be concise and factual. Cite which context item supports each claim where it helps.
If the context does not contain the answer, say so plainly instead of guessing.`

// ProjectInfo carries the identity facts injected into the prompt header.
type ProjectInfo struct {
	ID       string
	Name     string
	Overview string
}

// buildPrompt assembles the grounded prompt: fixed instructions, project
// identity facts, the ranked context as a numbered list, a conversational
// context note when prior turns exist, up to the last HistoryWindow turns
// verbatim, and the new question.
func buildPrompt(question string, project ProjectInfo, items []ContextItem, convCtx memory.Context, turns []session.Turn) string {
	var b strings.Builder

	b.WriteString(promptInstructions)
	b.WriteString("\n\n## Project\n")
	if project.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", project.Name)
	}
	fmt.Fprintf(&b, "ID: %s\n", project.ID)
	if project.Overview != "" {
		fmt.Fprintf(&b, "Overview: %s\n", project.Overview)
	}

	b.WriteString("\n## Context\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, item.Type, item.Title)
		fmt.Fprintf(&b, "   Source: %s", item.Source)
		if item.Author != "" {
			fmt.Fprintf(&b, " | Author: %s", item.Author)
		}
		if !item.CreatedAt.IsZero() {
			fmt.Fprintf(&b, " | Date: %s", item.CreatedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(&b, " | Relevance: %.2f\n", item.Relevance)
		fmt.Fprintf(&b, "   %s\n", excerpt(item.Content))
	}

	if len(turns) > 0 {
		writeConversationNote(&b, convCtx)

		b.WriteString("\n## Recent conversation\n")
		window := turns
		if len(window) > HistoryWindow {
			window = window[len(window)-HistoryWindow:]
		}
		for _, turn := range window {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Message)
		}
	}

	fmt.Fprintf(&b, "\n## Question\n%s\n", question)

	return b.String()
}

// writeConversationNote emits a short note surfacing extracted entities and
// resolved pronouns so the model can ground follow-up questions.
func writeConversationNote(b *strings.Builder, convCtx memory.Context) {
	if convCtx.Empty() {
		return
	}

	b.WriteString("\n## Conversation context\n")
	if len(convCtx.MentionedPeople) > 0 {
		fmt.Fprintf(b, "People mentioned recently: %s\n", strings.Join(convCtx.MentionedPeople, ", "))
	}
	if len(convCtx.MentionedProjects) > 0 {
		fmt.Fprintf(b, "Projects mentioned recently: %s\n", strings.Join(convCtx.MentionedProjects, ", "))
	}
	if len(convCtx.MentionedDates) > 0 {
		fmt.Fprintf(b, "Dates mentioned recently: %s\n", strings.Join(convCtx.MentionedDates, ", "))
	}
	if ref, ok := convCtx.PronounRefs["his/her/their"]; ok {
		fmt.Fprintf(b, "Pronouns like \"his\", \"her\" or \"their\" in the question likely refer to %s.\n", ref)
	}
	if ref, ok := convCtx.PronounRefs["it"]; ok {
		fmt.Fprintf(b, "\"It\" in the question likely refers to %s.\n", ref)
	}
}

// excerpt truncates content to ExcerptLimit characters, marking the cut.
func excerpt(content string) string {
	if len(content) <= ExcerptLimit {
		return content
	}
	return content[:ExcerptLimit] + "…"
}
