package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wesm/imsgvault/internal/archive"
	"github.com/wesm/imsgvault/internal/query"
)

const maxLimit = 1000

type handlers struct {
	reader archive.Reader
}

// accessResult is the check_access payload.
type accessResult struct {
	Database           query.DatabaseStatus `json:"database"`
	ContactsAccessible bool                 `json:"contacts_accessible"`
}

// getIDArg extracts a positive integer ID. ok is false when the argument
// is absent.
func getIDArg(args map[string]any, key string) (id int64, ok bool, err error) {
	raw, present := args[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	v, isNum := raw.(float64)
	if !isNum || v != math.Trunc(v) || v < 1 || v > math.MaxInt64 {
		return 0, true, fmt.Errorf("%s must be a positive integer", key)
	}
	return int64(v), true, nil
}

// filterArgs reads the after/before date bounds.
func filterArgs(args map[string]any) (query.ExportOptions, error) {
	after, err := getDateArg(args, "after")
	if err != nil {
		return query.ExportOptions{}, err
	}
	before, err := getDateArg(args, "before")
	if err != nil {
		return query.ExportOptions{}, err
	}
	return query.ExportOptions{}.WithDates(after, before), nil
}

// toolError reports a failed archive call, preferring the user guidance
// for store access problems.
func toolError(op string, err error) *mcp.CallToolResult {
	if guidance := archive.Guidance(err); guidance != "" {
		return mcp.NewToolResultError(guidance)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", op, err))
}

func (h *handlers) checkAccess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(accessResult{
		Database:           h.reader.CheckStoreAccessible(ctx),
		ContactsAccessible: h.reader.CheckContactsAccessible(ctx),
	})
}

func (h *handlers) listContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contacts, err := h.reader.ListContacts(ctx)
	if err != nil {
		return toolError("list contacts", err), nil
	}
	if contacts == nil {
		contacts = []query.Contact{}
	}
	return jsonResult(contacts)
}

func (h *handlers) listChats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chats, err := h.reader.ListChats(ctx)
	if err != nil {
		return toolError("list chats", err), nil
	}
	if chats == nil {
		chats = []query.Chat{}
	}
	return jsonResult(chats)
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, err := filterArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stats, err := h.reader.GetStats(ctx, opts)
	if err != nil {
		return toolError("get stats", err), nil
	}
	return jsonResult(stats)
}

func (h *handlers) listMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	opts, err := filterArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, ok, err := getIDArg(args, "contact_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		opts.ContactIDs = []int64{id}
	}

	limit := limitArg(args, "limit", defaultListMessageLimit)
	if limit == 0 {
		return jsonResult([]query.Message{})
	}
	messages, err := h.reader.ListMessages(ctx, opts, limit)
	if err != nil {
		return toolError("list messages", err), nil
	}
	return messagesResult(messages)
}

func (h *handlers) getContactMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, ok, err := getIDArg(args, "contact_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("contact_id parameter is required"), nil
	}
	opts, err := filterArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	messages, err := h.reader.ListMessagesForContact(ctx, id, opts)
	if err != nil {
		return toolError("get contact messages", err), nil
	}
	return messagesResult(messages)
}

func messagesResult(messages []query.Message) (*mcp.CallToolResult, error) {
	if messages == nil {
		messages = []query.Message{}
	}
	return jsonResult(messages)
}

// getDateArg extracts an optional date (YYYY-MM-DD) from the arguments map.
func getDateArg(args map[string]any, key string) (*time.Time, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return nil, nil
	}
	t, err := query.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date %q: expected YYYY-MM-DD", key, v)
	}
	return t, nil
}

// limitArg extracts a non-negative integer limit from a map, with a default.
// JSON numbers arrive as float64. Clamps to maxLimit.
func limitArg(args map[string]any, key string, def int) int {
	v, ok := args[key].(float64)
	if !ok {
		return def
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) || v > float64(maxLimit) {
		return maxLimit
	}
	return int(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
