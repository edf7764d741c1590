// Package rules loads and validates the static matching rule set.
//
// The rule set is read once at startup from a YAML file and is immutable
// for the lifetime of the process.
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is the immutable matching configuration.
//
// TitleMatch substrings are OR-matched against the submission title.
// TitleMatchSecondary, when present, must additionally OR-match the same
// title. TextMatch, when present, restricts hits to self posts whose body
// OR-matches at least one substring.
type Set struct {
	Subreddits          []string `yaml:"subreddit"`
	TitleMatch          []string `yaml:"title_match"`
	TitleMatchSecondary []string `yaml:"title_match_secondary"`
	TextMatch           []string `yaml:"text_match"`
	LogLevel            string   `yaml:"log_level"`
}

// Load reads and validates a rule set from the YAML file at path.
// Match substrings are normalized to lowercase.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a rule set from raw YAML.
func Parse(data []byte) (*Set, error) {
	var raw struct {
		Subreddit           stringList `yaml:"subreddit"`
		TitleMatch          []string   `yaml:"title_match"`
		TitleMatchSecondary []string   `yaml:"title_match_secondary"`
		TextMatch           []string   `yaml:"text_match"`
		LogLevel            string     `yaml:"log_level"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	s := &Set{
		Subreddits:          raw.Subreddit,
		TitleMatch:          lowercaseAll(raw.TitleMatch),
		TitleMatchSecondary: lowercaseAll(raw.TitleMatchSecondary),
		TextMatch:           lowercaseAll(raw.TextMatch),
		LogLevel:            raw.LogLevel,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the startup preconditions of the rule set.
func (s *Set) Validate() error {
	if len(s.Subreddits) == 0 {
		return fmt.Errorf("rules: subreddit is required")
	}
	for _, sub := range s.Subreddits {
		if strings.TrimSpace(sub) == "" {
			return fmt.Errorf("rules: subreddit entries must be non-empty")
		}
	}
	if len(s.TitleMatch) == 0 {
		return fmt.Errorf("rules: title_match is required and must be non-empty")
	}
	return nil
}

// Multireddit joins the configured subreddits into the "a+b+c" path
// segment understood by the submission listing endpoints.
func (s *Set) Multireddit() string {
	return strings.Join(s.Subreddits, "+")
}

// stringList accepts either a single YAML scalar or a sequence of scalars.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = stringList{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := value.Decode(&ss); err != nil {
			return err
		}
		*l = stringList(ss)
		return nil
	default:
		return fmt.Errorf("subreddit must be a string or a list of strings")
	}
}

func lowercaseAll(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}
