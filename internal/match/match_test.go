package match

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"subwatch/internal/model"
	"subwatch/internal/rules"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		rs   rules.Set
		sub  model.Submission
		want Verdict
	}{
		{
			name: "title match, no text rules",
			rs:   rules.Set{TitleMatch: []string{"recall"}},
			sub:  model.Submission{Title: "Battery Recall Notice"},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
		{
			name: "no title match",
			rs:   rules.Set{TitleMatch: []string{"recall"}},
			sub:  model.Submission{Title: "Weekly discussion thread"},
			want: Verdict{},
		},
		{
			name: "title match is case insensitive",
			rs:   rules.Set{TitleMatch: []string{"recall"}},
			sub:  model.Submission{Title: "RECALL issued today"},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
		{
			name: "title OR logic: second pattern matches",
			rs:   rules.Set{TitleMatch: []string{"recall", "warranty"}},
			sub:  model.Submission{Title: "Extended warranty offer"},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
		{
			name: "substring matching is not word-boundary-aware",
			rs:   rules.Set{TitleMatch: []string{"cat"}},
			sub:  model.Submission{Title: "New category added"},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
		{
			name: "empty title never matches",
			rs:   rules.Set{TitleMatch: []string{"recall"}},
			sub:  model.Submission{Title: ""},
			want: Verdict{},
		},
		{
			name: "secondary required and present",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TitleMatchSecondary: []string{"battery"}},
			sub:  model.Submission{Title: "Battery recall notice"},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
		{
			name: "secondary required but absent",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TitleMatchSecondary: []string{"battery"}},
			sub:  model.Submission{Title: "Tire recall notice"},
			want: Verdict{},
		},
		{
			name: "secondary present but primary absent",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TitleMatchSecondary: []string{"battery"}},
			sub:  model.Submission{Title: "Battery sale this week"},
			want: Verdict{},
		},
		{
			name: "text match on self post body",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TextMatch: []string{"battery"}},
			sub: model.Submission{
				Title:    "Battery Recall Notice",
				IsSelf:   true,
				Selftext: "affected battery packs",
			},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
		{
			name: "text rules configured, link post never hits",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TextMatch: []string{"battery"}},
			sub:  model.Submission{Title: "Recall announcement", IsSelf: false},
			want: Verdict{TitleMatched: true},
		},
		{
			name: "text rules configured, self post body misses",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TextMatch: []string{"battery"}},
			sub: model.Submission{
				Title:    "Recall announcement",
				IsSelf:   true,
				Selftext: "tires only, nothing else affected",
			},
			want: Verdict{TitleMatched: true},
		},
		{
			name: "empty selftext on self post does not text-match",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TextMatch: []string{"battery"}},
			sub:  model.Submission{Title: "Recall announcement", IsSelf: true, Selftext: ""},
			want: Verdict{TitleMatched: true},
		},
		{
			name: "empty pattern matches empty selftext",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TextMatch: []string{""}},
			sub:  model.Submission{Title: "Recall announcement", IsSelf: true, Selftext: ""},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
		{
			name: "text stage skipped when title stage fails",
			rs:   rules.Set{TitleMatch: []string{"recall"}, TextMatch: []string{"battery"}},
			sub: model.Submission{
				Title:    "Nothing relevant",
				IsSelf:   true,
				Selftext: "battery packs everywhere",
			},
			want: Verdict{},
		},
		{
			name: "missing author does not affect evaluation",
			rs:   rules.Set{TitleMatch: []string{"recall"}},
			sub:  model.Submission{Title: "Recall notice", Author: ""},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
		{
			name: "unicode title match",
			rs:   rules.Set{TitleMatch: []string{"отзыв"}},
			sub:  model.Submission{Title: "Срочный ОТЗЫВ партии"},
			want: Verdict{TitleMatched: true, TextMatched: true, IsHit: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(&tt.rs, &tt.sub)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
