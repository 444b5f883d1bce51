package enrich

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/dgallion1/fracture/internal/align"
)

// Match describes how a reference was found in the section text.
type Match string

const (
	MatchExact Match = "exact"
	MatchFuzzy Match = "fuzzy"
)

// ValidatedRef is a reference confirmed against the source text.
type ValidatedRef struct {
	Text  string `json:"text"`
	Match Match  `json:"match"`
}

// Validation tunes the fuzzy fallback. WindowBand is the fraction of the
// reference length by which a candidate window may be shorter or longer;
// MaxDistanceRatio bounds the edit distance relative to the longer string.
type Validation struct {
	WindowBand       float64
	MaxDistanceRatio float64
}

// DefaultValidation is a conservative starting point.
var DefaultValidation = Validation{WindowBand: 0.25, MaxDistanceRatio: 0.2}

const maxRefLength = 500

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`forget\s+(everything|all)|new\s+instructions)`,
)

// ValidateRefs keeps each reference that occurs in text, either as an exact
// substring after normalization or as a close fuzzy match. Duplicates by
// normalized form are dropped. Rejected references are returned separately.
func ValidateRefs(refs []string, text string, v Validation) (kept []ValidatedRef, rejected []string) {
	norm := []rune(align.Normalize(text))
	normText := string(norm)
	seen := map[string]bool{}

	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		key := align.Normalize(ref)
		if key == "" || len(ref) > maxRefLength || injectionPattern.MatchString(ref) {
			rejected = append(rejected, ref)
			continue
		}
		if seen[key] {
			continue
		}

		switch {
		case strings.Contains(normText, key):
			kept = append(kept, ValidatedRef{Text: ref, Match: MatchExact})
		case fuzzyContains(norm, []rune(key), v):
			kept = append(kept, ValidatedRef{Text: ref, Match: MatchFuzzy})
		default:
			rejected = append(rejected, ref)
			continue
		}
		seen[key] = true
	}
	return kept, rejected
}

// fuzzyContains slides windows over text whose lengths are within the band
// around len(ref). A coarse pass with window starts a stride apart locates
// the best region, which a second pass then scans at every offset and length.
func fuzzyContains(text, ref []rune, v Validation) bool {
	n := len(ref)
	if n == 0 || len(text) == 0 {
		return false
	}
	band := int(float64(n)*v.WindowBand + 0.5)
	stride := max(n/8, 1)

	best, bestStart := -1, 0
	for start := 0; start < len(text); start += stride {
		end := min(start+n, len(text))
		d := levenshtein.ComputeDistance(string(text[start:end]), string(ref))
		if best < 0 || d < best {
			best, bestStart = d, start
		}
		if end == len(text) {
			break
		}
	}

	from := max(bestStart-stride, 0)
	to := min(bestStart+stride, len(text)-1)
	for start := from; start <= to; start++ {
		for l := max(n-band, 1); l <= n+band; l++ {
			end := start + l
			if end > len(text) {
				break
			}
			d := levenshtein.ComputeDistance(string(text[start:end]), string(ref))
			if !align.Exceeds(d, max(l, n), v.MaxDistanceRatio) {
				return true
			}
		}
	}
	return false
}
