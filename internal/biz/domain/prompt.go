package domain

// JudgmentPrompt is the prompt sent to the classifier model
type JudgmentPrompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// String composes the prompt into a single text
func (p JudgmentPrompt) String() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}
