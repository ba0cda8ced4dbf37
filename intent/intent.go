package intent

import (
	"regexp"
	"strings"
)

// Intent is the tag assigned to a query by the classifier.
type Intent string

const (
	Weather Intent = "weather"
	Image   Intent = "image"
	News    Intent = "news"
	AddTask Intent = "add-task"
	General Intent = "general"
)

// rules are evaluated in fixed priority order with first-match semantics.
// Several trigger words can occur in a single query ("weather news today"),
// so evaluation must stop at the first hit.
var rules = []struct {
	match  func(lower string) bool
	intent Intent
}{
	{func(q string) bool { return strings.Contains(q, "weather") }, Weather},
	{func(q string) bool {
		return strings.Contains(q, "show me") || strings.Contains(q, "image") ||
			strings.Contains(q, "picture") || strings.Contains(q, "photo")
	}, Image},
	{func(q string) bool { return strings.Contains(q, "news") }, News},
	{func(q string) bool { return strings.HasPrefix(q, "add task") }, AddTask},
}

// Classify lowercases the query and returns the first matching intent, or
// General when no rule fires.
func Classify(query string) Intent {
	lower := strings.ToLower(query)
	for _, r := range rules {
		if r.match(lower) {
			return r.intent
		}
	}
	return General
}

var (
	cityRe    = regexp.MustCompile(`(?i)in ([a-zA-Z ]+)`)
	subjectRe = regexp.MustCompile(`(?i)show me|image|picture|photo|\bof\b`)
	addTaskRe = regexp.MustCompile(`(?i)^add task\s+(.+)\s+at\s+(([01]?[0-9]|2[0-3]):[0-5][0-9])\s*$`)
)

const (
	// DefaultCity is used when the query names no city.
	DefaultCity = "New York"
	// DefaultSubject is used when stripping the trigger words leaves nothing.
	DefaultSubject = "nature"
)

// City extracts the city for a weather query. The pattern runs against the
// original query, not the lowercased copy, so the city keeps its casing.
func City(query string) string {
	if m := cityRe.FindStringSubmatch(query); m != nil {
		if city := strings.TrimSpace(m[1]); city != "" {
			return city
		}
	}
	return DefaultCity
}

// ImageSubject strips the image trigger words from the query and returns what
// remains as the search subject.
func ImageSubject(query string) string {
	subject := strings.Join(strings.Fields(subjectRe.ReplaceAllString(query, "")), " ")
	if subject == "" {
		return DefaultSubject
	}
	return subject
}

// TaskRequest is the title and time extracted from an add-task query.
type TaskRequest struct {
	Title string
	Time  string
}

// ParseAddTask matches the exact "add task <title> at <H:MM>" shape. The time
// token is kept verbatim; its hour and minute are validated as shape only.
// ok is false when the query does not match, in which case no task may be
// created.
func ParseAddTask(query string) (TaskRequest, bool) {
	m := addTaskRe.FindStringSubmatch(query)
	if m == nil {
		return TaskRequest{}, false
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return TaskRequest{}, false
	}
	return TaskRequest{Title: title, Time: m[2]}, true
}
