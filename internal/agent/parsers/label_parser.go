package parsers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/renal-diet-poc/server/internal/agent/model"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// basic safety limits to avoid pathological model output
const (
	maxLabelLen = 4 * 1024 // labels and yes/no answers are a few bytes
	maxDishLen  = 200      // a dish name is a word or a short phrase
)

// NormalizeLabel trims, lower-cases and bounds raw model output. Invalid UTF-8
// is replaced rather than rejected so routing can still fall back.
func NormalizeLabel(raw string) string {
	if !utf8.ValidString(raw) {
		logx.Warn().Str("component", "label_parser").Msg("label is not valid utf8, replacing invalid bytes")
		raw = strings.ToValidUTF8(raw, "")
	}
	if len(raw) > maxLabelLen {
		raw = truncateRunes(raw, maxLabelLen)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseIntent maps classifier output onto the closed Intent set.
// "recommendation" wins over "quiz"; anything else is a summary request.
func ParseIntent(raw string) model.Intent {
	label := NormalizeLabel(raw)
	switch {
	case strings.Contains(label, string(model.IntentRecommendation)):
		return model.IntentRecommendation
	case strings.Contains(label, string(model.IntentQuiz)):
		return model.IntentQuiz
	default:
		if label != string(model.IntentSummary) {
			logx.Debug().Str("label", label).Msg("unrecognized intent label, defaulting to summary")
		}
		return model.IntentSummary
	}
}

// ParseDecision reads the summary judgment. Only an answer containing "yes"
// enables the summary step.
func ParseDecision(raw string) bool {
	return strings.Contains(NormalizeLabel(raw), "yes")
}

// NoOutput is the extractor's answer for a passage with nothing relevant.
const NoOutput = "NO_OUTPUT"

// ParseExtraction trims extractor output and maps NO_OUTPUT to "".
func ParseExtraction(raw string) string {
	s := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
	if s == NoOutput {
		return ""
	}
	return s
}

// CleanDishName strips whitespace, wrapping quotes and trailing punctuation
// from the dish extractor output. Case is preserved.
func CleanDishName(raw string) string {
	s := strings.ToValidUTF8(raw, "")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`“”‘’「」")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) && r != ')'
	})
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxDishLen {
		s = truncateRunes(s, maxDishLen)
	}
	return s
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
