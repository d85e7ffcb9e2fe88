package homework

import (
	"regexp"
	"strings"
)

var (
	scorePattern    = regexp.MustCompile(`#\s*评分[:：]\s*(\d+)`)
	feedbackHeading = regexp.MustCompile(`(?m)^##\s*(?:💡\s*)?评语\s*$`)
	nextHeading     = regexp.MustCompile(`(?m)^#{1,2}\s`)
)

// ExtractScore finds the "# 评分: NN" heading in a grading text. The second
// return value is false when the text carries no score, in which case no score
// card is rendered.
func ExtractScore(correction string) (string, bool) {
	m := scorePattern.FindStringSubmatch(correction)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractFeedback returns the body of an optional "## 💡 评语" section.
func ExtractFeedback(correction string) string {
	loc := feedbackHeading.FindStringIndex(correction)
	if loc == nil {
		return ""
	}
	rest := correction[loc[1]:]
	if next := nextHeading.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return strings.TrimSpace(rest)
}
