package services

import (
	"fmt"
	"regexp"
	"strings"
)

// KnowledgeBase answers common general-knowledge questions when no uploaded
// document is relevant, instead of claiming document-based knowledge.
// Implementations must be deterministic.
type KnowledgeBase interface {
	Match(query string) (string, bool)
}

// StaticKnowledgeBase is a fixed lookup-table responder. Tables can be
// extended or swapped without touching the assembler.
type StaticKnowledgeBase struct {
	capitals    map[string]string
	people      map[string]string
	definitions map[string]string
}

func NewStaticKnowledgeBase() *StaticKnowledgeBase {
	return &StaticKnowledgeBase{
		capitals: map[string]string{
			"france":         "Paris",
			"germany":        "Berlin",
			"italy":          "Rome",
			"spain":          "Madrid",
			"portugal":       "Lisbon",
			"united kingdom": "London",
			"england":        "London",
			"ireland":        "Dublin",
			"netherlands":    "Amsterdam",
			"belgium":        "Brussels",
			"switzerland":    "Bern",
			"austria":        "Vienna",
			"greece":         "Athens",
			"poland":         "Warsaw",
			"russia":         "Moscow",
			"china":          "Beijing",
			"japan":          "Tokyo",
			"india":          "New Delhi",
			"canada":         "Ottawa",
			"australia":      "Canberra",
			"brazil":         "Brasília",
			"mexico":         "Mexico City",
			"egypt":          "Cairo",
			"turkey":         "Ankara",
			"united states":  "Washington, D.C.",
			"usa":            "Washington, D.C.",
		},
		people: map[string]string{
			"albert einstein":   "Albert Einstein was a theoretical physicist best known for the theory of relativity.",
			"isaac newton":      "Isaac Newton was a physicist and mathematician who formulated the laws of motion and universal gravitation.",
			"marie curie":       "Marie Curie was a physicist and chemist, the first person to win Nobel Prizes in two different sciences.",
			"charles darwin":    "Charles Darwin was a naturalist best known for the theory of evolution by natural selection.",
			"ada lovelace":      "Ada Lovelace was a mathematician regarded as the first computer programmer.",
			"alan turing":       "Alan Turing was a mathematician and computer scientist, a founder of theoretical computer science.",
			"william shakespeare": "William Shakespeare was an English playwright and poet, widely regarded as the greatest writer in the English language.",
		},
		definitions: map[string]string{
			"photosynthesis": "Photosynthesis is the process by which plants convert light energy into chemical energy stored in glucose.",
			"gravity":        "Gravity is the force by which objects with mass attract one another.",
			"democracy":      "Democracy is a system of government in which power is vested in the people, typically through elected representatives.",
			"inflation":      "Inflation is the rate at which the general level of prices for goods and services rises over time.",
			"algorithm":      "An algorithm is a finite sequence of well-defined instructions for solving a problem or performing a computation.",
			"ecosystem":      "An ecosystem is a community of living organisms interacting with each other and their physical environment.",
		},
	}
}

var capitalOfRegex = regexp.MustCompile(`capital (?:city )?of (?:the )?([a-z .]+)`)

// Match looks the query up against the fixed tables.
func (kb *StaticKnowledgeBase) Match(query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.TrimRight(q, "?!. ")

	if m := capitalOfRegex.FindStringSubmatch(q); len(m) == 2 {
		country := strings.TrimSpace(m[1])
		if capital, ok := kb.capitals[country]; ok {
			return fmt.Sprintf("The capital of %s is %s.", titleCase(country), capital), true
		}
	}

	for name, fact := range kb.people {
		if strings.Contains(q, name) {
			return fact, true
		}
	}

	for term, definition := range kb.definitions {
		if strings.Contains(q, term) {
			return definition, true
		}
	}

	return "", false
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if len(f) > 0 {
			fields[i] = strings.ToUpper(f[:1]) + f[1:]
		}
	}
	return strings.Join(fields, " ")
}
