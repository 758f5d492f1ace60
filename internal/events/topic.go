package events

import "strings"

// Topic is a dot-separated event name such as "app.root.attached".
// Subscription patterns may use wildcards.
type Topic string

// Wildcards and the segment separator.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	Separator = "."
)

func (t Topic) String() string { return string(t) }

// Segments splits t on the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// IsValid reports whether t is non-empty and has no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// IsPattern reports whether t contains a wildcard segment.
func (t Topic) IsPattern() bool {
	for _, seg := range t.Segments() {
		if seg == WildcardSingle || seg == WildcardMulti {
			return true
		}
	}
	return false
}

// Matches reports whether t matches pattern.
//
//	app.*       matches app.started, not app.root.attached
//	app.**      matches app, app.started and app.root.attached
//	*.started   matches app.started
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	ti := 0
	for pi := 0; pi < len(pattern); pi++ {
		switch pattern[pi] {
		case WildcardMulti:
			for ; ti <= len(topic); ti++ {
				if matchSegments(topic[ti:], pattern[pi+1:]) {
					return true
				}
			}
			return false
		case WildcardSingle:
			if ti >= len(topic) {
				return false
			}
		default:
			if ti >= len(topic) || topic[ti] != pattern[pi] {
				return false
			}
		}
		ti++
	}
	return ti == len(topic)
}
