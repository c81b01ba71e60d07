package tui

import "unicode/utf8"

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 200

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// editDigits processes a keystroke for the discount percentage input: only
// digits are accepted and the resulting value must stay within [0, 100].
// Anything else leaves the text unchanged.
func editDigits(text string, key string) string {
	if key == "backspace" {
		if len(text) > 0 {
			return text[:len(text)-1]
		}
		return text
	}
	if len(key) != 1 || key[0] < '0' || key[0] > '9' {
		return text
	}
	next := text + key
	if len(next) > 3 {
		return text
	}
	// "100" is the only valid three-digit value.
	if len(next) == 3 && next != "100" {
		return text
	}
	return next
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}
