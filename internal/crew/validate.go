package crew

import (
	"strings"
	"unicode"

	"github.com/markmdev/networking-copilot/internal/model"
)

const (
	highlightCount     = 10
	summarySentences   = 2
	minKeyHighlights   = 2
	maxKeyHighlights   = 3
	minIcebreakers     = 3
	maxIcebreakers     = 5
	minOverlapWordSize = 4
)

// titles are abbreviations that are always followed by more of the same
// sentence, usually a name.
var titles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "rev": true,
	"st": true, "gen": true, "sen": true, "rep": true, "gov": true, "capt": true,
	"lt": true, "col": true, "sgt": true, "vs": true, "e.g": true, "i.e": true,
	"cf": true, "approx": true,
}

// ValidateAnalysis trims a in place and checks it carries a name and
// exactly ten distinct non-empty highlights.
func ValidateAnalysis(a *model.AnalyzerOutput) error {
	a.ProfileName = strings.TrimSpace(a.ProfileName)
	a.Headline = strings.TrimSpace(a.Headline)
	a.CurrentTitle = strings.TrimSpace(a.CurrentTitle)
	a.CurrentCompany = strings.TrimSpace(a.CurrentCompany)
	a.Location = strings.TrimSpace(a.Location)

	if a.ProfileName == "" {
		return shapeErr("profile_name", "is empty")
	}
	if len(a.Highlights) != highlightCount {
		return shapeErr("highlights", "got %d, want exactly %d", len(a.Highlights), highlightCount)
	}
	seen := make(map[string]bool, len(a.Highlights))
	for i, h := range a.Highlights {
		h = strings.TrimSpace(h)
		if h == "" {
			return shapeErr("highlights", "entry %d is empty", i)
		}
		key := strings.ToLower(h)
		if seen[key] {
			return shapeErr("highlights", "entry %d duplicates %q", i, h)
		}
		seen[key] = true
		a.Highlights[i] = h
	}
	return nil
}

// Sentences splits text into trimmed non-empty sentences. A period ends a
// sentence only when the next word starts like a sentence and the word
// before it is not a title or an initial, so "Acme Inc. in Austin",
// "Dr. Jane", "Ph.D. researcher" and "3.5M" stay whole.
func Sentences(text string) []string {
	rs := []rune(strings.TrimSpace(text))
	var out []string
	add := func(part []rune) {
		if p := strings.TrimSpace(string(part)); p != "" {
			out = append(out, p)
		}
	}

	start := 0
	for i := 0; i < len(rs); i++ {
		if !isTerminal(rs[i]) {
			continue
		}
		j := i
		for j < len(rs) && isTerminal(rs[j]) {
			j++
		}
		for j < len(rs) && isCloser(rs[j]) {
			j++
		}
		if j == len(rs) || (unicode.IsSpace(rs[j]) && endsSentence(rs[start:i], rs[i:j], nextRune(rs, j))) {
			add(rs[start:j])
			start = j
		}
		i = j - 1
	}
	add(rs[start:])
	return out
}

func endsSentence(before, punct []rune, next rune) bool {
	if strings.ContainsAny(string(punct), "!?") {
		return true
	}
	if !unicode.IsUpper(next) && !unicode.IsDigit(next) && !isOpener(next) {
		return false
	}

	fields := strings.Fields(string(before))
	if len(fields) == 0 {
		return true
	}
	word := strings.TrimLeftFunc(fields[len(fields)-1], isOpener)
	if titles[strings.ToLower(word)] {
		return false
	}
	w := []rune(word)
	return !(len(w) == 1 && unicode.IsUpper(w[0]))
}

func nextRune(rs []rune, from int) rune {
	for _, r := range rs[from:] {
		if !unicode.IsSpace(r) {
			return r
		}
	}
	return 0
}

func isTerminal(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isCloser(r rune) bool {
	return strings.ContainsRune(`"')]’”`, r)
}

func isOpener(r rune) bool {
	return strings.ContainsRune(`"'([‘“`, r)
}

// ValidateSummary trims s in place and checks it is two sentences with two
// or three key highlights drawn from the analysis.
func ValidateSummary(s *model.SummaryOutput, a *model.AnalyzerOutput) error {
	s.Summary = strings.TrimSpace(s.Summary)
	if n := len(Sentences(s.Summary)); n != summarySentences {
		return shapeErr("summary", "got %d sentences, want %d", n, summarySentences)
	}

	n := len(s.KeyHighlights)
	if n < minKeyHighlights || n > maxKeyHighlights {
		return shapeErr("key_highlights", "got %d, want %d-%d", n, minKeyHighlights, maxKeyHighlights)
	}
	source := analysisWords(a)
	for i, h := range s.KeyHighlights {
		h = strings.TrimSpace(h)
		if h == "" {
			return shapeErr("key_highlights", "entry %d is empty", i)
		}
		if !sharesWord(h, source) {
			return shapeErr("key_highlights", "entry %d %q is not supported by the analysis", i, h)
		}
		s.KeyHighlights[i] = h
	}
	return nil
}

// ValidateIcebreakers normalizes categories and prompts in place and checks
// count, category set, duplicates and that every prompt is a question.
func ValidateIcebreakers(set *model.IcebreakerSet) error {
	n := len(set.Icebreakers)
	if n < minIcebreakers || n > maxIcebreakers {
		return shapeErr("icebreakers", "got %d, want %d-%d", n, minIcebreakers, maxIcebreakers)
	}

	seen := make(map[model.IcebreakerCategory]bool, n)
	for i := range set.Icebreakers {
		ib := &set.Icebreakers[i]
		ib.Category = model.IcebreakerCategory(strings.ToLower(strings.TrimSpace(string(ib.Category))))
		ib.Prompt = strings.TrimSpace(ib.Prompt)

		if !ib.Category.Valid() {
			return shapeErr("icebreakers", "entry %d has unknown category %q", i, ib.Category)
		}
		if ib.Prompt == "" {
			return shapeErr("icebreakers", "entry %d has an empty prompt", i)
		}
		if !strings.HasSuffix(ib.Prompt, "?") {
			return shapeErr("icebreakers", "entry %d is not a question", i)
		}
		if seen[ib.Category] && n == maxIcebreakers {
			return shapeErr("icebreakers", "category %q repeated in a full set", ib.Category)
		}
		seen[ib.Category] = true
	}
	return nil
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func analysisWords(a *model.AnalyzerOutput) map[string]bool {
	out := map[string]bool{}
	parts := append([]string{a.Headline, a.CurrentTitle, a.CurrentCompany, a.Location}, a.Highlights...)
	for _, p := range parts {
		for _, w := range words(p) {
			if len([]rune(w)) >= minOverlapWordSize {
				out[w] = true
			}
		}
	}
	return out
}

// sharesWord reports whether s has a significant word in source. Text with
// no significant words passes.
func sharesWord(s string, source map[string]bool) bool {
	checked := false
	for _, w := range words(s) {
		if len([]rune(w)) < minOverlapWordSize {
			continue
		}
		if source[w] {
			return true
		}
		checked = true
	}
	return !checked
}
