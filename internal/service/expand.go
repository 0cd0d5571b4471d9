package service

import "fmt"

// Lens names a fixed reformulation used to broaden retrieval beyond the
// question's literal wording. Lens order is part of the contract: merge
// logic tags results by lens name in execution order.
type Lens string

const (
	LensAnalogies    Lens = "ANALOGIES"
	LensOpposites    Lens = "OPPOSITES"
	LensCauses       Lens = "CAUSES"
	LensCombinations Lens = "COMBINATIONS"
)

// maxExpandQueryChars bounds the question text substituted into lens
// templates, capping downstream embedding cost on adversarially long input.
const maxExpandQueryChars = 200

// LensQuery pairs a lens with its generated phrasing
type LensQuery struct {
	Lens  Lens
	Query string
}

var lensTemplates = []struct {
	lens     Lens
	template string
}{
	{LensAnalogies, "What natural or engineered systems are analogous to: %s"},
	{LensOpposites, "What are the failure modes or opposites of: %s"},
	{LensCauses, "What are the root causes behind: %s"},
	{LensCombinations, "What unexpected combinations of ideas relate to: %s"},
}

// ExpandQuery generates exactly 4 alternate phrasings of the question, one
// per lens, in fixed order. Pure: no I/O, no randomness.
func ExpandQuery(question string) []LensQuery {
	truncated := truncateQuestion(question)

	expansions := make([]LensQuery, 0, len(lensTemplates))
	for _, lt := range lensTemplates {
		expansions = append(expansions, LensQuery{
			Lens:  lt.lens,
			Query: fmt.Sprintf(lt.template, truncated),
		})
	}
	return expansions
}

func truncateQuestion(question string) string {
	runes := []rune(question)
	if len(runes) <= maxExpandQueryChars {
		return question
	}
	return string(runes[:maxExpandQueryChars])
}
