package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text cleanup for raw OCR output. Local engines produce ligatures, stray
// symbols and noise lines; these passes reduce that to readable text.

var (
	ligatureReplacer = strings.NewReplacer(
		"ﬁ", "fi",
		"ﬂ", "fl",
		"—", "-",
		"–", "-",
	)

	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?¡¿'"()/%-]`)
	leadingGarbage  = regexp.MustCompile(`^[^\p{L}\p{N}¿¡(]+`)
	letterChars     = regexp.MustCompile(`\p{L}`)
	digitChars      = regexp.MustCompile(`\d`)
	symbolOnlyLine  = regexp.MustCompile(`^[\d\s;:%'"!¡?¿,.]+$`)
	multiSpace      = regexp.MustCompile(`[ \t]+`)
	multiNewline    = regexp.MustCompile(`\n{3,}`)
	spacedNewline   = regexp.MustCompile(`\s*\n\s*`)
)

// NormalizeText applies NFKC normalization and replaces typographic
// characters common in scanned documents with ASCII equivalents.
func NormalizeText(text string) string {
	return ligatureReplacer.Replace(norm.NFKC.String(text))
}

// CleanText runs the full cleanup: normalization, character filtering,
// garbage-line removal and whitespace collapsing.
func CleanText(text string) string {
	text = NormalizeText(text)
	text = disallowedChars.ReplaceAllString(text, " ")
	text = stripGarbageLines(text)
	text = dropNoisyLines(text)
	return collapseSpaces(text)
}

// stripGarbageLines removes lines that are mostly symbols rather than text.
// A line survives if at least 40% of its characters are alphanumeric,
// whitespace or common punctuation, and it contains at least one letter.
func stripGarbageLines(text string) string {
	var clean []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		good := 0
		runes := []rune(line)
		for _, ch := range runes {
			if isUsefulRune(ch) {
				good++
			}
		}
		if float64(good)/float64(len(runes)) < 0.4 {
			continue
		}

		line = leadingGarbage.ReplaceAllString(line, "")
		if !letterChars.MatchString(line) {
			continue
		}

		clean = append(clean, line)
	}

	return strings.Join(clean, "\n")
}

// dropNoisyLines filters number-dominated lines, fragments and symbol-only
// lines, and collapses consecutive duplicates.
func dropNoisyLines(text string) string {
	var filtered []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		letters := len(letterChars.FindAllString(line, -1))
		numbers := len(digitChars.FindAllString(line, -1))
		if numbers > letters*2 {
			continue
		}
		if len([]rune(line)) <= 2 {
			continue
		}
		if symbolOnlyLine.MatchString(line) {
			continue
		}

		if len(filtered) > 0 && strings.EqualFold(filtered[len(filtered)-1], line) {
			continue
		}
		filtered = append(filtered, line)
	}

	return strings.Join(filtered, "\n")
}

// collapseSpaces reduces repeated spaces and blank runs
func collapseSpaces(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	text = spacedNewline.ReplaceAllString(text, "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func isUsefulRune(ch rune) bool {
	switch {
	case unicode.IsLetter(ch) || unicode.IsDigit(ch):
		return true
	case ch == ' ' || ch == '\t':
		return true
	case strings.ContainsRune(`.,;:!?¡¿'"()-/%`, ch):
		return true
	}
	return false
}
