// Package patterns evaluates staff-maintained regular expressions against
// transaction descriptions, attributing owners and tags automatically.
package patterns

import (
	"regexp"
	"sort"

	"icomag/internal/models"

	"github.com/rs/zerolog"
)

// CompiledPattern is a stored pattern ready for matching. TargetID is the
// owner or tag the pattern attributes to.
type CompiledPattern struct {
	ID       uint
	TargetID uint
	re       *regexp.Regexp
}

// MatchString reports whether the pattern matches the given text.
func (p CompiledPattern) MatchString(text string) bool {
	return p.re.MatchString(text)
}

// CompileOwnerPatterns prepares active owner patterns for matching, sorted by
// ID so iteration order is creation order. A stored pattern that no longer
// compiles is skipped with a warning rather than aborting the pass; creation
// validation makes this unreachable in practice.
func CompileOwnerPatterns(pats []models.OwnerPattern, log zerolog.Logger) []CompiledPattern {
	out := make([]CompiledPattern, 0, len(pats))
	for _, p := range pats {
		if !p.IsActive {
			continue
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			log.Warn().Uint("pattern_id", p.ID).Str("pattern", p.Pattern).
				Err(err).Msg("skipping owner pattern that does not compile")
			continue
		}
		out = append(out, CompiledPattern{ID: p.ID, TargetID: p.OwnerID, re: re})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CompileTagPatterns prepares active tag patterns the same way.
func CompileTagPatterns(pats []models.TagPattern, log zerolog.Logger) []CompiledPattern {
	out := make([]CompiledPattern, 0, len(pats))
	for _, p := range pats {
		if !p.IsActive {
			continue
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			log.Warn().Uint("pattern_id", p.ID).Str("pattern", p.Pattern).
				Err(err).Msg("skipping tag pattern that does not compile")
			continue
		}
		out = append(out, CompiledPattern{ID: p.ID, TargetID: p.TagID, re: re})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Match returns every pattern matching text, in creation order. Used for tag
// attribution where all matches apply.
func Match(pats []CompiledPattern, text string) []CompiledPattern {
	var matched []CompiledPattern
	for _, p := range pats {
		if p.MatchString(text) {
			matched = append(matched, p)
		}
	}
	return matched
}

// FirstMatch returns the first matching pattern in creation order. Used for
// owner attribution where first match wins.
func FirstMatch(pats []CompiledPattern, text string) (CompiledPattern, bool) {
	for _, p := range pats {
		if p.MatchString(text) {
			return p, true
		}
	}
	return CompiledPattern{}, false
}
