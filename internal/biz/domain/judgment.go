package domain

import "time"

// Outcome is the terminal state of one gate pass
type Outcome string

const (
	OutcomeIneligible Outcome = "ineligible"
	OutcomeBypass     Outcome = "bypass" // direct mention, forwarded without judgment
	OutcomeForward    Outcome = "forward"
	OutcomeSuppress   Outcome = "suppress"
)

// Decision is the result of handling one incoming message
type Decision struct {
	Outcome Outcome
	Reason  IneligibleReason // Set when Outcome is OutcomeIneligible
	Verdict Verdict
	Raw     string // Raw classifier response
	Cause   error  // Why the verdict is indeterminate, if it is
}

// Forwarded checks if the message was handed to the primary reply path
func (d Decision) Forwarded() bool {
	return d.Outcome == OutcomeForward || d.Outcome == OutcomeBypass
}

// Judgment is the audit record of one classified message
type Judgment struct {
	ID        string        `json:"id"`
	GroupID   string        `json:"group_id"`
	MessageID string        `json:"message_id,omitempty"`
	Sender    string        `json:"sender"`
	Text      string        `json:"text"`
	Outcome   Outcome       `json:"outcome"`
	Verdict   Verdict       `json:"verdict"`
	Raw       string        `json:"raw,omitempty"`
	Cause     string        `json:"cause,omitempty"`
	Latency   time.Duration `json:"latency"`
	CreatedAt time.Time     `json:"created_at"`
}
