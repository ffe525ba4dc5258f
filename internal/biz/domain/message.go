package domain

// IncomingMessage represents a group message delivered by the message source
type IncomingMessage struct {
	GroupID     string
	MessageID   string // Optional, used for deduplication and the audit log
	SenderLabel string
	Text        string
	IsMention   bool // True if the bot was addressed directly
}

// HistoryEntry is one speaker-tagged line of group context
type HistoryEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Format renders the entry as "speaker: text"
func (e HistoryEntry) Format() string {
	return e.Speaker + ": " + e.Text
}
