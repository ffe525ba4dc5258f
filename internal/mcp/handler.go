package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devricklin/smart-listener/internal/biz/domain"
)

const defaultJudgmentLimit = 20

// Handler implements the MCP tools on top of the admin API client
type Handler struct {
	client *Client
}

// NewHandler creates a new MCP handler
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// JudgeInput is the input for gate_judge
type JudgeInput struct {
	GroupID string `json:"group_id" jsonschema:"The group whose history provides context"`
	Sender  string `json:"sender,omitempty" jsonschema:"Display name of the sender"`
	Text    string `json:"text" jsonschema:"The message to judge"`
}

// JudgeOutput is the output for gate_judge
type JudgeOutput struct {
	Verdict   string `json:"verdict"`
	Forward   bool   `json:"forward"`
	Raw       string `json:"raw"`
	Cause     string `json:"cause,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Prompt    string `json:"prompt"`
}

// Judge handles gate_judge
func (h *Handler) Judge(ctx context.Context, req *mcpsdk.CallToolRequest, input JudgeInput) (*mcpsdk.CallToolResult, JudgeOutput, error) {
	if input.Text == "" {
		return nil, JudgeOutput{}, fmt.Errorf("text is required")
	}
	result, err := h.client.Judge(ctx, input.GroupID, input.Sender, input.Text)
	if err != nil {
		return nil, JudgeOutput{}, err
	}
	return nil, JudgeOutput{
		Verdict:   result.Verdict.String(),
		Forward:   result.Forward,
		Raw:       result.Raw,
		Cause:     result.Cause,
		LatencyMS: result.Latency.Milliseconds(),
		Prompt:    result.Prompt.String(),
	}, nil
}

// HistoryInput is the input for gate_history
type HistoryInput struct {
	GroupID string `json:"group_id,omitempty" jsonschema:"The group to show; omit to list groups"`
}

// HistoryOutput is the output for gate_history
type HistoryOutput struct {
	Groups  []string              `json:"groups,omitempty"`
	Entries []domain.HistoryEntry `json:"entries,omitempty"`
}

// History handles gate_history
func (h *Handler) History(ctx context.Context, req *mcpsdk.CallToolRequest, input HistoryInput) (*mcpsdk.CallToolResult, HistoryOutput, error) {
	if input.GroupID == "" {
		groups, err := h.client.GetGroups(ctx)
		if err != nil {
			return nil, HistoryOutput{}, err
		}
		return nil, HistoryOutput{Groups: groups}, nil
	}

	entries, err := h.client.GetHistory(ctx, input.GroupID)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	return nil, HistoryOutput{Entries: entries}, nil
}

// RecentJudgmentsInput is the input for gate_recent_judgments
type RecentJudgmentsInput struct {
	GroupID string `json:"group_id,omitempty" jsonschema:"Only judgments for this group"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of judgments (default 20)"`
}

// JudgmentView is a judgment as reported to MCP clients
type JudgmentView struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Outcome   string `json:"outcome"`
	Verdict   string `json:"verdict"`
	Cause     string `json:"cause,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	CreatedAt string `json:"created_at"`
}

// RecentJudgmentsOutput is the output for gate_recent_judgments
type RecentJudgmentsOutput struct {
	Judgments []JudgmentView `json:"judgments"`
}

// RecentJudgments handles gate_recent_judgments
func (h *Handler) RecentJudgments(ctx context.Context, req *mcpsdk.CallToolRequest, input RecentJudgmentsInput) (*mcpsdk.CallToolResult, RecentJudgmentsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultJudgmentLimit
	}

	judgments, err := h.client.GetJudgments(ctx, input.GroupID, limit)
	if err != nil {
		return nil, RecentJudgmentsOutput{}, err
	}

	out := RecentJudgmentsOutput{Judgments: make([]JudgmentView, 0, len(judgments))}
	for _, j := range judgments {
		out.Judgments = append(out.Judgments, JudgmentView{
			ID:        j.ID,
			GroupID:   j.GroupID,
			Sender:    j.Sender,
			Text:      j.Text,
			Outcome:   string(j.Outcome),
			Verdict:   j.Verdict.String(),
			Cause:     j.Cause,
			LatencyMS: j.Latency.Milliseconds(),
			CreatedAt: j.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

// ConfigInput is empty, no input needed
type ConfigInput struct{}

// ConfigOutput is the output for gate_config
type ConfigOutput struct {
	Enabled   bool     `json:"enabled"`
	Active    bool     `json:"active"`
	Problem   string   `json:"problem,omitempty"`
	Provider  string   `json:"provider"`
	Character string   `json:"character"`
	Whitelist []string `json:"group_whitelist"`
}

// Config handles gate_config
func (h *Handler) Config(ctx context.Context, req *mcpsdk.CallToolRequest, input ConfigInput) (*mcpsdk.CallToolResult, ConfigOutput, error) {
	view, err := h.client.GetConfig(ctx)
	if err != nil {
		return nil, ConfigOutput{}, err
	}
	return nil, ConfigOutput{
		Enabled:   view.Enabled,
		Active:    view.Active,
		Problem:   view.Problem,
		Provider:  view.ProviderID,
		Character: view.Character,
		Whitelist: view.Whitelist,
	}, nil
}
