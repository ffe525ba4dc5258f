package feishu

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Feishu mention placeholders; @_user_1 is a prefix of @_user_10, so they
// are matched whole rather than replaced key by key
var mentionKeyPattern = regexp.MustCompile(`@_user_\d+|@_all`)

// ParseTextContent extracts the text of a text message, replacing mention
// placeholders (@_user_1) with names
func ParseTextContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return replaceMentions(parsed.Text, mentionMap)
}

// ParsePostContent flattens a rich text message to plain text, one line per
// paragraph. Images are dropped.
func ParsePostContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag    string `json:"tag"`
			Text   string `json:"text,omitempty"`
			UserID string `json:"user_id,omitempty"` // for "at" tags
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}

	var lines []string
	if parsed.Title != "" {
		lines = append(lines, parsed.Title)
	}
	for _, paragraph := range parsed.Content {
		var sb strings.Builder
		for _, elem := range paragraph {
			switch elem.Tag {
			case "text", "a":
				sb.WriteString(elem.Text)
			case "at":
				if elem.UserID == "" {
					continue
				}
				if name, ok := mentionMap[elem.UserID]; ok {
					sb.WriteString("@" + name)
				} else {
					sb.WriteString("@" + elem.UserID)
				}
			}
		}
		if sb.Len() > 0 {
			lines = append(lines, sb.String())
		}
	}

	return replaceMentions(strings.Join(lines, "\n"), mentionMap)
}

// replaceMentions replaces mention placeholders (@_user_1, @_user_2, ...) with
// @Name. Placeholders without a name are left as they are.
func replaceMentions(text string, mentionMap map[string]string) string {
	if len(mentionMap) == 0 {
		return text
	}
	return mentionKeyPattern.ReplaceAllStringFunc(text, func(key string) string {
		if name, ok := mentionMap[key]; ok {
			return "@" + name
		}
		return key
	})
}
