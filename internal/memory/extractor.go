// Package memory derives conversational context from recent dialogue turns.
//
// The extraction is heuristic and best-effort: it surfaces candidate entities
// (people, projects, dates) from the last few turns and resolves simple
// pronoun references in the new question. It must never fail a request; any
// internal error degrades to an empty Context.
//
// The Extractor interface keeps the strategy pluggable so the text-scanning
// heuristic can be swapped for a proper NLP component without touching the
// rest of the pipeline.
package memory

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/finch-ai/finch/internal/session"
)

// EntityScanWindow is the number of trailing turns scanned for entities.
const EntityScanWindow = 5

// Context is the derived conversational context for one query.
// It is recomputed on every query and never persisted.
type Context struct {
	MentionedPeople   []string          // ordered, de-duplicated
	MentionedProjects []string          // ordered, de-duplicated
	MentionedDates    []string          // ordered, de-duplicated
	PronounRefs       map[string]string // pronoun class -> most recent referent
}

// Empty reports whether the context carries no information.
func (c Context) Empty() bool {
	return len(c.MentionedPeople) == 0 &&
		len(c.MentionedProjects) == 0 &&
		len(c.MentionedDates) == 0 &&
		len(c.PronounRefs) == 0
}

// Extractor derives a Context from recent turns and the new question.
type Extractor interface {
	Extract(turns []session.Turn, question string) Context
}

var (
	// capitalizedRe matches capitalized word tokens (candidate person names).
	capitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

	// numericDateRe matches MM/DD/YYYY-like dates.
	numericDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)

	// writtenDateRe matches "Month DD, YYYY"-like dates.
	writtenDateRe = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`)

	// projectNameRe captures "<Name> project" or "project <Name>".
	projectNameRe = regexp.MustCompile(`(?:\b([A-Z][A-Za-z0-9]+)\s+[Pp]roject\b|\b[Pp]roject\s+([A-Z][A-Za-z0-9]+)\b)`)

	// possessivePronounRe matches third-person possessives/pronouns in the question.
	possessivePronounRe = regexp.MustCompile(`\b(?:his|her|their)\b`)

	// itPronounRe matches the bare pronoun "it".
	itPronounRe = regexp.MustCompile(`\bit\b`)
)

// nameStopwords are capitalized tokens that are not person names: sentence
// starters, pronouns, months and weekday names, and the project marker itself.
var nameStopwords = map[string]struct{}{
	"The": {}, "This": {}, "That": {}, "These": {}, "Those": {},
	"What": {}, "Who": {}, "When": {}, "Where": {}, "Why": {}, "How": {},
	"Is": {}, "Are": {}, "Was": {}, "Were": {}, "Did": {}, "Does": {}, "Do": {},
	"Can": {}, "Could": {}, "Will": {}, "Would": {}, "Should": {},
	"He": {}, "She": {}, "They": {}, "We": {}, "You": {}, "It": {},
	"His": {}, "Her": {}, "Their": {}, "Our": {}, "My": {}, "Your": {},
	"And": {}, "But": {}, "Or": {}, "Not": {}, "Yes": {}, "No": {}, "Please": {},
	"Project": {}, "Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
	"January": {}, "February": {}, "March": {}, "April": {}, "May": {},
	"June": {}, "July": {}, "August": {}, "September": {}, "October": {},
	"November": {}, "December": {},
}

// Heuristic is the default text-scanning Extractor.
type Heuristic struct {
	logger *slog.Logger
}

// NewHeuristic creates the default extractor. A nil logger uses slog.Default().
func NewHeuristic(logger *slog.Logger) *Heuristic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Heuristic{logger: logger}
}

// Extract scans the last EntityScanWindow turns plus the new question.
//
// Fail-open: a panic anywhere in the scan is recovered into an empty Context
// so a malformed turn can never abort the query it belongs to.
func (h *Heuristic) Extract(turns []session.Turn, question string) (out Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn("context extraction panicked, returning empty context", "panic", r)
			out = Context{}
		}
	}()

	if len(turns) > EntityScanWindow {
		turns = turns[len(turns)-EntityScanWindow:]
	}

	var (
		people       []string
		projects     []string
		dates        []string
		seenPeople   = map[string]struct{}{}
		seenProjects = map[string]struct{}{}
		seenDates    = map[string]struct{}{}
		lastPerson   string
		lastProject  string
	)

	scan := func(text string) {
		for _, name := range capitalizedRe.FindAllString(text, -1) {
			if _, stop := nameStopwords[name]; stop {
				continue
			}
			lastPerson = name
			if _, dup := seenPeople[name]; !dup {
				seenPeople[name] = struct{}{}
				people = append(people, name)
			}
		}

		for _, re := range []*regexp.Regexp{numericDateRe, writtenDateRe} {
			for _, d := range re.FindAllString(text, -1) {
				if _, dup := seenDates[d]; !dup {
					seenDates[d] = struct{}{}
					dates = append(dates, d)
				}
			}
		}

		if strings.Contains(strings.ToLower(text), "project") {
			marker := "project"
			if m := projectNameRe.FindStringSubmatch(text); m != nil {
				if m[1] != "" {
					marker = m[1]
				} else {
					marker = m[2]
				}
			}
			lastProject = marker
			if _, dup := seenProjects[marker]; !dup {
				seenProjects[marker] = struct{}{}
				projects = append(projects, marker)
			}
		}
	}

	for _, turn := range turns {
		scan(turn.Message)
	}

	refs := make(map[string]string)
	lowerQuestion := strings.ToLower(question)
	if lastPerson != "" && possessivePronounRe.MatchString(lowerQuestion) {
		refs["his/her/their"] = lastPerson
	}
	if lastProject != "" && itPronounRe.MatchString(lowerQuestion) {
		refs["it"] = lastProject
	}

	return Context{
		MentionedPeople:   people,
		MentionedProjects: projects,
		MentionedDates:    dates,
		PronounRefs:       refs,
	}
}
