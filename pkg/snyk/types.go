package snyk

import "fmt"

// Frequency is the test cadence applied to a project.
type Frequency string

const (
	// FrequencyDaily tests the project once per day.
	FrequencyDaily Frequency = "daily"

	// FrequencyWeekly tests the project once per week.
	FrequencyWeekly Frequency = "weekly"

	// FrequencyNever disables recurring tests for the project.
	FrequencyNever Frequency = "never"
)

// Frequencies returns all valid frequency values.
func Frequencies() []Frequency {
	return []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyNever}
}

// Valid reports whether f is one of the enumerated frequency values.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyNever:
		return true
	}
	return false
}

// ParseFrequency converts a raw string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("invalid frequency %q (allowed: daily, weekly, never)", s)
	}
	return f, nil
}

// Project is one entry returned by the project listing endpoint.
// Projects are immutable once fetched.
type Project struct {
	ID         string            `json:"id"`
	Attributes ProjectAttributes `json:"attributes"`
}

// ProjectAttributes holds the subset of project attributes this client
// reads. The API returns more fields; they are ignored on decode.
type ProjectAttributes struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DisplayName returns the project name, or a placeholder when the
// listing omitted it.
func (p Project) DisplayName() string {
	if p.Attributes.Name == "" {
		return "Unknown Name"
	}
	return p.Attributes.Name
}

// ProjectPage is one page of the listing response envelope.
type ProjectPage struct {
	Data  []Project `json:"data"`
	Links PageLinks `json:"links"`
}

// PageLinks carries the continuation cursor. An empty Next marks the
// final page. Next may be absolute or host-relative.
type PageLinks struct {
	Next string `json:"next"`
}
