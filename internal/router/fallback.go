package router

import (
	"regexp"
	"strconv"
	"strings"
)

// Deterministic fallback classification. Pure function of the query text;
// used whenever the primary classifier is unavailable or returns garbage.

var (
	chartPattern = regexp.MustCompile(`(?i)(\b(chart|graph|plot|bar|line|pie|doughnut)\b|visuali[sz]e|show me a (chart|graph))`)

	// two decimal numbers around a single arithmetic operator, first match wins
	arithmeticPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([-+*/])\s*(\d+(?:\.\d+)?)`)

	ragPattern = regexp.MustCompile(`(?i)(\b(what|who|when|where|which|how|why)\b|\bdocument(ation)?\b|\baccording to\b|\bmentioned\b|\bin the docs\b|\bexplain\b)`)
)

// Fallback classifies a query using fixed keyword and pattern rules.
// Same input always yields the same decision.
func Fallback(query string) Decision {
	d := Decision{Path: PathFallback}

	d.NeedsChart = chartPattern.MatchString(query)

	m := arithmeticPattern.FindStringSubmatch(query)
	hasMath := m != nil

	d.NeedsRAG = ragPattern.MatchString(query) && !hasMath

	if hasMath && !d.NeedsChart && !d.NeedsRAG {
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[3], 64)
		var v float64
		switch m[2] {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			// division by zero follows IEEE-754 (+Inf, -Inf, NaN)
			v = a / b
		}
		d.DirectAnswer = "The answer is " + strconv.FormatFloat(v, 'f', -1, 64) + "."
	}
	return d
}

// stripCodeFences removes a surrounding markdown code fence from classifier output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
