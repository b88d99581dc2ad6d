package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/repo"
)

const (
	ToolParseDelay = "parse_delay"
	ToolHistory    = "expiry_history"

	defaultHistoryLimit = 20
)

// MCPServer exposes delay parsing and the expiry history as MCP tools
type MCPServer struct {
	server      *mcp.Server
	historyRepo repo.HistoryRepo
	maxDelay    int64
}

// NewMCPServer creates the tool server. historyRepo may be nil when history is disabled.
func NewMCPServer(version string, historyRepo repo.HistoryRepo, maxDelay int64) *MCPServer {
	s := &MCPServer{
		server:      mcp.NewServer(&mcp.Implementation{Name: "peekabot", Version: version}, nil),
		historyRepo: historyRepo,
		maxDelay:    maxDelay,
	}
	s.registerTools()
	return s
}

func (s *MCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolParseDelay,
		Description: "Parse an expiry delay such as '30 seconds', '5 minutes' or '2 hours' into seconds. Fails when the format is invalid or the delay is above the configured maximum.",
	}, s.handleParseDelay)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolHistory,
		Description: "List recently fired expiries, newest first, with the reactions each image collected.",
	}, s.handleHistory)
}

// ParseDelayInput is the input for parse_delay
type ParseDelayInput struct {
	Delay string `json:"delay" jsonschema:"the delay text, for example 10 minutes"`
}

// ParseDelayOutput is the output for parse_delay
type ParseDelayOutput struct {
	Seconds  int64 `json:"seconds"`
	MaxDelay int64 `json:"max_delay"`
}

func (s *MCPServer) handleParseDelay(ctx context.Context, req *mcp.CallToolRequest, input ParseDelayInput) (*mcp.CallToolResult, ParseDelayOutput, error) {
	seconds, err := domain.ParseDelay(input.Delay)
	if err != nil {
		return nil, ParseDelayOutput{}, fmt.Errorf("%q: %w", input.Delay, err)
	}
	if err := domain.CheckDelay(seconds, s.maxDelay); err != nil {
		return nil, ParseDelayOutput{}, fmt.Errorf("%q: %w (%d > %d seconds)", input.Delay, err, seconds, s.maxDelay)
	}
	return nil, ParseDelayOutput{Seconds: seconds, MaxDelay: s.maxDelay}, nil
}

// HistoryInput is the input for expiry_history
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries (default 20)"`
}

// HistoryOutput is the output for expiry_history
type HistoryOutput struct {
	Entries []HistoryItem `json:"entries"`
}

// HistoryItem is one fired expiry
type HistoryItem struct {
	ChannelID    string         `json:"channel_id"`
	MessageID    string         `json:"message_id"`
	UserID       string         `json:"user_id"`
	DelayText    string         `json:"delay_text"`
	DelaySeconds int64          `json:"delay_seconds"`
	Deleted      bool           `json:"deleted"`
	Reactions    map[string]int `json:"reactions,omitempty"`
	FiredAt      string         `json:"fired_at"`
}

var errHistoryDisabled = errors.New("history is disabled")

func (s *MCPServer) handleHistory(ctx context.Context, req *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	if s.historyRepo == nil {
		return nil, HistoryOutput{}, errHistoryDisabled
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries, err := s.historyRepo.Recent(ctx, limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("read history: %w", err)
	}

	out := HistoryOutput{Entries: make([]HistoryItem, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, HistoryItem{
			ChannelID:    e.ChannelID,
			MessageID:    e.MessageID,
			UserID:       e.UserID,
			DelayText:    e.DelayText,
			DelaySeconds: e.DelaySeconds,
			Deleted:      e.Deleted,
			Reactions:    e.Reactions,
			FiredAt:      e.FiredAt.UTC().Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

// Run serves the tools until ctx is done or the client disconnects
func (s *MCPServer) Run(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

// Connect serves the tools over an arbitrary transport
func (s *MCPServer) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}
