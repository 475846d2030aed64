package charts

import "strings"

// Kind enumerates the supported chart types.
type Kind string

const (
	KindBar      Kind = "bar"
	KindLine     Kind = "line"
	KindPie      Kind = "pie"
	KindDoughnut Kind = "doughnut"
)

// DetectKind classifies the chart kind from query text, defaulting to bar
// when no explicit kind is mentioned.
func DetectKind(query string) Kind {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "line"):
		return KindLine
	case strings.Contains(q, "pie"):
		return KindPie
	case strings.Contains(q, "doughnut"):
		return KindDoughnut
	default:
		return KindBar
	}
}
