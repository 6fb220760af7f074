package autodeck

import (
	"fmt"
	"time"
)

// Report summarises one build.
type Report struct {
	RunID        string         `json:"run_id"`
	Output       string         `json:"output"`
	Theme        string         `json:"theme"`
	Slides       int            `json:"slides"`
	Skipped      []SkippedSlide `json:"skipped,omitempty"`
	Degradations []Degradation  `json:"degradations,omitempty"`
	Previews     []string       `json:"previews,omitempty"`
	Elapsed      time.Duration  `json:"elapsed"`
}

// Degraded reports whether any slide was skipped or assembled with reduced
// fidelity.
func (r *Report) Degraded() bool {
	return len(r.Skipped) > 0 || len(r.Degradations) > 0
}

// Lines renders the human-readable run output: one line per skipped slide
// and degradation, then a summary line.
func (r *Report) Lines() []string {
	out := make([]string, 0, len(r.Skipped)+len(r.Degradations)+1)
	for _, s := range r.Skipped {
		out = append(out, s.String())
	}
	for _, d := range r.Degradations {
		out = append(out, d.String())
	}
	summary := fmt.Sprintf("wrote %s: %d slides, theme %s", r.Output, r.Slides, r.Theme)
	if n := len(r.Skipped); n > 0 {
		summary += fmt.Sprintf(", %d skipped", n)
	}
	if n := len(r.Degradations); n > 0 {
		summary += fmt.Sprintf(", %d degraded", n)
	}
	summary += fmt.Sprintf(" (%s)", r.Elapsed.Round(time.Millisecond))
	return append(out, summary)
}
