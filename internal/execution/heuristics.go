package execution

import (
	"errors"
	"strings"
)

// ErrBothEmpty signals that neither raced model produced any content.
var ErrBothEmpty = errors.New("both models returned empty responses")

// countCodeFences returns the number of fenced code blocks (pairs of ```).
func countCodeFences(text string) int {
	return strings.Count(text, "```") / 2
}

var errorHandlingMarkers = []string{
	"try {", "catch", "except", "finally", "if err", ".catch(",
	"throw ", "raise ", "error(", "Result<",
}

func hasErrorHandling(text string) bool {
	for _, marker := range errorHandlingMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

var typeAnnotationMarkers = []string{
	": string", ": number", ": boolean", ": int", ": float",
	"interface ", "type ", "<T>", "Generic[", "struct {",
}

func hasTypeAnnotations(text string) bool {
	for _, marker := range typeAnnotationMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

var errorFixPrompts = []string{"error", "fix", "bug", "handle", "exception", "crash"}

func concernsErrorHandling(req Request) bool {
	prompt := strings.ToLower(req.Prompt)
	for _, marker := range errorFixPrompts {
		if strings.Contains(prompt, marker) {
			return true
		}
	}
	return false
}

var typedLanguageNames = []string{
	"typescript", "tsx", ".ts", "golang", " go ", "rust", "java", "kotlin", "swift", "c#",
}

func concernsTypedLanguage(req Request) bool {
	haystack := strings.ToLower(req.Prompt + " " + req.Context)
	for _, name := range typedLanguageNames {
		if strings.Contains(haystack, name) {
			return true
		}
	}
	return false
}

// shouldEnhance decides whether the smart model's full response is worth
// appending after the fast model's already-streamed text.
func shouldEnhance(fastText, smartText string, req Request) bool {
	if strings.TrimSpace(fastText) == "" {
		return true
	}
	// Materially longer: more than 1.5x the fast length and at least 500
	// characters more.
	if float64(len(smartText)) > 1.5*float64(len(fastText)) && len(smartText)-len(fastText) > 500 {
		return true
	}
	if countCodeFences(smartText)-countCodeFences(fastText) > 1 {
		return true
	}
	if concernsErrorHandling(req) && hasErrorHandling(smartText) && !hasErrorHandling(fastText) {
		return true
	}
	if concernsTypedLanguage(req) && hasTypeAnnotations(smartText) && !hasTypeAnnotations(fastText) {
		return true
	}
	return false
}

// raceResult pairs a model with its full response text.
type raceResult struct {
	Model string
	Text  string
}

// selectBestResponse picks the winner of a parallel race. An empty response
// always loses to a non-empty one; both sides empty is an explicit error
// rather than a silent tie-break. Past emptiness, a clear code-fence lead
// wins, then a clear length lead, then the primary by default preference.
func selectBestResponse(primary, secondary raceResult) (winner raceResult, reason string, err error) {
	primaryEmpty := strings.TrimSpace(primary.Text) == ""
	secondaryEmpty := strings.TrimSpace(secondary.Text) == ""

	switch {
	case primaryEmpty && secondaryEmpty:
		return raceResult{}, "", ErrBothEmpty
	case primaryEmpty:
		return secondary, "primary returned empty content", nil
	case secondaryEmpty:
		return primary, "secondary returned empty content", nil
	}

	fenceLead := countCodeFences(primary.Text) - countCodeFences(secondary.Text)
	if fenceLead > 2 {
		return primary, "more complete code", nil
	}
	if -fenceLead > 2 {
		return secondary, "more complete code", nil
	}

	if float64(len(primary.Text)) > 1.3*float64(len(secondary.Text)) {
		return primary, "more comprehensive", nil
	}
	if float64(len(secondary.Text)) > 1.3*float64(len(primary.Text)) {
		return secondary, "more comprehensive", nil
	}

	return primary, "default preference", nil
}
