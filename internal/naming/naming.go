package naming

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxLength caps base names below common filesystem limits.
	DefaultMaxLength = 200
	// DefaultIndexPadding is the zero-pad width of the segment ordinal prefix.
	DefaultIndexPadding = 6

	untitled = "untitled"
)

var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Sanitize replaces path-hostile characters with underscores and trims
// surrounding whitespace. Empty results become "untitled".
func Sanitize(name string) string {
	s := strings.TrimSpace(unsafeChars.Replace(name))
	if s == "" {
		return untitled
	}
	return s
}

// SafeBasename joins parts with "_" and bounds the result to maxLength runes.
// Without parts the sanitized fallback is used. Overlong names are cut so that
// the prefix plus "_" and the index (at least two digits) is exactly
// maxLength runes. Distinct indices give distinct suffixes.
func SafeBasename(parts []string, fallback string, index, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	name := strings.Join(parts, "_")
	if name == "" {
		name = Sanitize(fallback)
	}

	runes := []rune(name)
	if len(runes) > maxLength {
		suffix := fmt.Sprintf("_%02d", index)
		keep := max(maxLength-utf8.RuneCountInString(suffix), 0)
		name = string(runes[:keep]) + suffix
	}
	return name
}

// SegmentName prefixes base with the zero-padded segment index.
func SegmentName(index, padding int, base string) string {
	if padding <= 0 {
		padding = DefaultIndexPadding
	}
	return fmt.Sprintf("%0*d_%s", padding, index, base)
}

// SanitizeParts sanitizes each path element.
func SanitizeParts(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = Sanitize(p)
	}
	return out
}
