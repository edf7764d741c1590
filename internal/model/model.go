// Package model defines the domain types used across the application.
package model

import "time"

// Submission is a single post pulled from the submission stream.
// Fields map to what the stream source can provide; sources that
// cannot fill a field leave it at its zero value.
type Submission struct {
	// ID is the stable unique identifier used as the dedup counter key.
	ID string
	// Fullname is the source-prefixed form of the ID (e.g. "t3_abc123")
	// when the source exposes one.
	Fullname  string
	Title     string
	Author    string
	IsSelf    bool
	Selftext  string
	Subreddit string
	Permalink string
	URL       string
	Created   time.Time
}

// Link returns the best URL for a notification: the submission URL if
// present, otherwise the permalink.
func (s *Submission) Link() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Permalink
}
