package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// ENTITY EXTRACTION PATTERNS
// =============================================================================
// Extraction is regex capture only. Failure to extract is never an error:
// callers fall back to defaults and the classifier stays total.

// recipientPatterns extract a user name from message intents.
var recipientPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:send|write)\s+(?:a\s+)?message\s+to\s+([a-z][a-z0-9_.-]*)`),
	regexp.MustCompile(`(?i)^message\s+([a-z][a-z0-9_.-]*)`),
	regexp.MustCompile(`(?i)\btell\s+([a-z][a-z0-9_.-]*)\s+(?:that\s+)?`),
}

// amountPatterns extract a currency amount from budget intents.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:dollars?|bucks)\b`),
	regexp.MustCompile(`(?i)\b(\d{2,})\b`),
}

// productPatterns extract a catalog query from search intents.
var productPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:find|search\s+for|search|buy|shop\s+for)\s+(?:a\s+|some\s+)?(?:product\s+)?(.+)`),
}

// destinationPatterns extract a travel destination.
var destinationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:trip|travel|travelling|traveling|fly|flight)\s+to\s+([a-z][a-z .'-]*)`),
	regexp.MustCompile(`(?i)(?:visit)\s+([a-z][a-z .'-]*)`),
}

// daysPatterns extract a day count (trip length, workout frequency).
var daysPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*(?:-|\s)?days?\b`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:times|x)\s*(?:a|per)\s*week`),
	regexp.MustCompile(`(?i)(\d+)\s*days?\s*(?:a|per)\s*week`),
}

// reminderPatterns extract the reminded task text.
var reminderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)remind\s+me\s+(?:to\s+)?(.+)`),
	regexp.MustCompile(`(?i)(?:set|create)\s+(?:a\s+)?reminder\s+(?:to\s+|for\s+)?(.+)`),
}

// postPatterns extract the drafted content for a social post.
var postPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:post|share)\s+(?:about\s+)?(.+)`),
	regexp.MustCompile(`(?i)(?:create|write|draft)\s+(?:a\s+)?post\s+(?:about\s+)?(.+)`),
}

func firstCapture(patterns []*regexp.Regexp, input string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(input); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractRecipient pulls the mentioned user name from a message intent.
func extractRecipient(input string) string {
	return firstCapture(recipientPatterns, input)
}

// extractAmount pulls a currency amount; ok is false when nothing parsed.
func extractAmount(input string) (float64, bool) {
	raw := firstCapture(amountPatterns, input)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// extractProductQuery pulls the catalog query, trimming trailing politeness.
func extractProductQuery(input string) string {
	q := firstCapture(productPatterns, input)
	q = strings.TrimSuffix(q, "?")
	q = strings.TrimSuffix(q, ".")
	for _, filler := range []string{" please", " for me", " thanks"} {
		q = strings.TrimSuffix(q, filler)
	}
	return strings.TrimSpace(q)
}

// extractDestination pulls a travel destination, trimming trailing clauses.
func extractDestination(input string) string {
	d := firstCapture(destinationPatterns, input)
	// The capture may end mid-clause ("Lisbon for"), so match separators
	// against the capture with a sentinel space appended.
	for _, sep := range []string{" for ", " in ", " next ", " with "} {
		if i := strings.Index(d+" ", sep); i > 0 {
			d = d[:i]
		}
	}
	return strings.Trim(strings.TrimSpace(d), ".?!")
}

// extractDays pulls a day count; ok is false when nothing parsed.
func extractDays(input string) (int, bool) {
	raw := firstCapture(daysPatterns, input)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// extractReminderText pulls the task text for a reminder intent.
func extractReminderText(input string) string {
	return strings.Trim(firstCapture(reminderPatterns, input), ".?! ")
}

// extractPostContent pulls the drafted content for a social post intent.
func extractPostContent(input string) string {
	return strings.Trim(firstCapture(postPatterns, input), ".?! ")
}
