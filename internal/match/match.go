// Package match implements the submission matching engine.
package match

import (
	"strings"

	"subwatch/internal/model"
	"subwatch/internal/rules"
)

// Verdict is the outcome of evaluating one submission against the rule set.
type Verdict struct {
	TitleMatched bool
	TextMatched  bool
	IsHit        bool
}

// Evaluate decides whether a submission qualifies as a hit.
//
// The title stage OR-matches TitleMatch substrings; when a secondary list
// is configured the same title must also OR-match it. The text stage is
// trivially true when no TextMatch is configured; otherwise only self
// posts whose body contains at least one TextMatch substring pass.
// All matching is case-insensitive substring containment, never
// word-boundary-aware, so partial-word hits are expected.
func Evaluate(rs *rules.Set, sub *model.Submission) Verdict {
	var v Verdict

	title := strings.ToLower(sub.Title)
	v.TitleMatched = containsAny(title, rs.TitleMatch)
	if v.TitleMatched && len(rs.TitleMatchSecondary) > 0 {
		v.TitleMatched = containsAny(title, rs.TitleMatchSecondary)
	}
	if !v.TitleMatched {
		return v
	}

	switch {
	case len(rs.TextMatch) == 0:
		v.TextMatched = true
	case sub.IsSelf:
		v.TextMatched = containsAny(strings.ToLower(sub.Selftext), rs.TextMatch)
	default:
		// A link post cannot satisfy a body-text requirement.
		v.TextMatched = false
	}

	v.IsHit = v.TitleMatched && v.TextMatched
	return v
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
