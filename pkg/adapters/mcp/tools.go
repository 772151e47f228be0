package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tracker"
)

// ChangesResponse is returned by the pending-change tools.
type ChangesResponse struct {
	Summary string                 `json:"summary"`
	Changes []domain.PendingChange `json:"changes"`
}

// ViewResponse is returned by tools that replace the view.
type ViewResponse struct {
	SessionID string                   `json:"session_id"`
	Version   int64                    `json:"version"`
	Resource  string                   `json:"resource"`
	Issues    []domain.ValidationIssue `json:"issues,omitempty"`
	Sources   []string                 `json:"sources,omitempty"`
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Description("Render session (defaults to the MCP session)"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("show_view",
		mcp.WithDescription("Replace the session's view with a UI tree built from a template."),
		mcp.WithObject("tree", mcp.Required(), mcp.Description(`UI tree: {"root": id, "elements": {id: {key, type, props, children}}}`)),
		mcp.WithObject("context", mcp.Description("Data shipped next to the tree")),
		mcp.WithString("source", mcp.Description("Template name")),
		sessionArg(),
	), s.handleShowView)

	s.mcpServer.AddTool(mcp.NewTool("generate_view",
		mcp.WithDescription("Ask the language model for a dashboard and show it."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What the operator wants to see")),
		mcp.WithArray("sources", mcp.WithStringItems(), mcp.Description("Data sources to use instead of keyword matching")),
		sessionArg(),
	), s.handleGenerateView)

	s.mcpServer.AddTool(mcp.NewTool("execute_action",
		mcp.WithDescription("Run a widget action. Applied directly when the host allows tool calls, otherwise queued for confirmation."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Tool name")),
		mcp.WithObject("args", mcp.Description("Tool arguments")),
		mcp.WithString("description", mcp.Description("Human readable description")),
		sessionArg(),
	), s.handleExecuteAction)

	s.mcpServer.AddTool(mcp.NewTool("move_card",
		mcp.WithDescription("Move a card between columns of a KanbanBoard."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("KanbanBoard node id")),
		mcp.WithString("card_id", mcp.Required()),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target column id")),
		sessionArg(),
	), s.handleMoveCard)

	s.mcpServer.AddTool(mcp.NewTool("edit_field",
		mcp.WithDescription("Commit a value in an InlineEditor or Picker."),
		mcp.WithString("node_id", mcp.Required()),
		mcp.WithAny("value", mcp.Required()),
		sessionArg(),
	), s.handleEditField)

	s.mcpServer.AddTool(mcp.NewTool("get_pending_changes",
		mcp.WithDescription("List changes queued because the host could not apply them directly."),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionArg(),
	), s.handlePendingChanges)

	s.mcpServer.AddTool(mcp.NewTool("confirm_changes",
		mcp.WithDescription("Return the queued changes for the operator to apply, and clear them."),
		sessionArg(),
	), s.handleConfirmChanges)

	s.mcpServer.AddTool(mcp.NewTool("get_catalog",
		mcp.WithDescription("Describe the components a UI tree may use."),
		mcp.WithReadOnlyHintAnnotation(true),
	), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.engine.Catalog().Describe()), nil
	})
}

func (s *Server) handleShowView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	tree, err := decodeTree(args["tree"])
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid tree", err), nil
	}
	data, _ := args["context"].(map[string]any)

	sid := sessionID(ctx, req)
	snap, err := s.engine.Inject(ctx, sid, tree, data, req.GetString("source", ""))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("show failed", err), nil
	}
	resp := ViewResponse{SessionID: sid, Version: snap.Version, Resource: ViewURI}
	return mcp.NewToolResultStructured(resp, fmt.Sprintf("View updated (version %d). Read %s to display it.", snap.Version, ViewURI)), nil
}

func (s *Server) handleGenerateView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sid := sessionID(ctx, req)
	res, snap, err := s.engine.Generate(ctx, sid, prompt, req.GetStringSlice("sources", nil)...)
	if err != nil {
		return mcp.NewToolResultError(generationMessage(err)), nil
	}
	resp := ViewResponse{
		SessionID: sid,
		Version:   snap.Version,
		Resource:  ViewURI,
		Issues:    res.Issues,
		Sources:   res.Sources,
	}
	return mcp.NewToolResultStructured(resp, fmt.Sprintf("Generated view with %d elements (%d issues).", res.Tree.Len(), len(res.Issues))), nil
}

// generationMessage gives each failure category its own operator-facing text.
func generationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return "Generation is not configured: missing API credential. " + err.Error()
	case errors.Is(err, domain.ErrInvalidJSON):
		return "The model did not return valid JSON. " + err.Error()
	case errors.Is(err, domain.ErrInvalidTree):
		return "The model returned JSON that is not a UI tree. " + err.Error()
	case errors.Is(err, domain.ErrGenerationFailed):
		return "The model request failed. " + err.Error()
	default:
		return "Generation rejected: " + err.Error()
	}
}

func (s *Server) handleExecuteAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args, _ := req.GetArguments()["args"].(map[string]any)
	res := s.engine.Execute(ctx, sessionID(ctx, req), domain.ActionRequest{
		Type:        typ,
		Args:        args,
		Description: req.GetString("description", ""),
	})
	return actionResult(res), nil
}

// ActionResponse is the wire form of an action result.
type ActionResponse struct {
	Success bool   `json:"success"`
	Queued  bool   `json:"queued"`
	Error   string `json:"error,omitempty"`
}

func actionResult(res domain.ActionResult) *mcp.CallToolResult {
	resp := ActionResponse{Success: res.Success, Queued: res.Queued, Error: res.ErrorString()}
	switch {
	case res.HardFailure():
		out := mcp.NewToolResultStructured(resp, "Action failed: "+resp.Error)
		out.IsError = true
		return out
	case res.Queued:
		return mcp.NewToolResultStructured(resp, "Action queued for confirmation.")
	default:
		return mcp.NewToolResultStructured(resp, "Action applied.")
	}
}

func (s *Server) handleMoveCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err1 := req.RequireString("node_id")
	card, err2 := req.RequireString("card_id")
	to, err3 := req.RequireString("to")
	if err := errors.Join(err1, err2, err3); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.engine.MoveCard(ctx, sessionID(ctx, req), node, card, to)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("move failed", err), nil
	}
	return mcp.NewToolResultStructured(res, fmt.Sprintf("Move %s.", res.Outcome)), nil
}

func (s *Server) handleEditField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, ok := req.GetArguments()["value"]
	if !ok {
		return mcp.NewToolResultError("required argument \"value\" not found"), nil
	}
	res, err := s.engine.EditField(ctx, sessionID(ctx, req), node, value)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("edit failed", err), nil
	}
	return mcp.NewToolResultStructured(res, fmt.Sprintf("Edit %s.", res.Outcome)), nil
}

func (s *Server) handlePendingChanges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	changes, err := s.engine.Changes(ctx, sessionID(ctx, req))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list changes", err), nil
	}
	return changesResult(changes), nil
}

func (s *Server) handleConfirmChanges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	changes, err := s.engine.Confirm(ctx, sessionID(ctx, req))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to confirm changes", err), nil
	}
	return changesResult(changes), nil
}

func changesResult(changes []domain.PendingChange) *mcp.CallToolResult {
	if changes == nil {
		changes = []domain.PendingChange{}
	}
	summary := tracker.Summarize(changes)
	return mcp.NewToolResultStructured(ChangesResponse{Summary: summary, Changes: changes}, summary)
}
