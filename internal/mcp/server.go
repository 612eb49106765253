package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"markpad/internal/auth"
	"markpad/internal/notes"
	"markpad/internal/users"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server exposing note operations. Every tool
// takes a session token and resolves it through the same session manager
// as the HTTP API, so the tools only ever touch the caller's own notes.
func NewServer(sessions *auth.Manager, svc *notes.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"Markpad",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Tool: list_notes - Filtered, paginated note listing
	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List the caller's notes, newest first, in pages of 20. The age selector picks a time window or the archive set."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Session token obtained from login"),
			),
			mcp.WithString("age",
				mcp.Description("One of 'all', '1month', '3months', 'archive' (default: all)"),
			),
			mcp.WithNumber("page",
				mcp.Description("1-based page number (default: 1)"),
			),
		),
		handleListNotes(sessions, svc),
	)

	// Tool: create_note - Create a Markdown note
	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a new Markdown note. The rendered HTML is computed server-side."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Session token obtained from login"),
			),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Note body as raw Markdown"),
			),
		),
		handleCreateNote(sessions, svc),
	)

	// Tool: get_note - Fetch one note by ID
	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get one of the caller's notes by its ID."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Session token obtained from login"),
			),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID (24-character hex string)"),
			),
		),
		handleGetNote(sessions, svc),
	)

	// Tool: archive_note - Toggle the archive flag
	s.AddTool(
		mcp.NewTool("archive_note",
			mcp.WithDescription("Archive or unarchive one of the caller's notes."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Session token obtained from login"),
			),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID (24-character hex string)"),
			),
			mcp.WithBoolean("archived",
				mcp.Description("Target archive state (default: true)"),
			),
		),
		handleArchiveNote(sessions, svc),
	)

	// Tool: delete_archived - Bulk-delete the caller's archived notes
	s.AddTool(
		mcp.NewTool("delete_archived",
			mcp.WithDescription("Permanently delete all of the caller's archived notes. Active notes are untouched."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Session token obtained from login"),
			),
		),
		handleDeleteArchived(sessions, svc),
	)

	return s
}

// NoteResult represents a note in tool responses
type NoteResult struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	HTML       string    `json:"html"`
	Created    time.Time `json:"created"`
	IsArchived bool      `json:"isArchived"`
}

// PageResult mirrors the HTTP listing envelope
type PageResult struct {
	Data    []NoteResult `json:"data"`
	HasMore bool         `json:"hasMore"`
}

func handleListNotes(sessions *auth.Manager, svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		u, result := resolveSession(ctx, sessions, req)
		if result != nil {
			return result, nil
		}

		age := req.GetString("age", "all")
		page := req.GetInt("page", 1)

		pageData, err := svc.ListPage(ctx, u.ID, age, page)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}

		out := PageResult{
			Data:    notesToResults(pageData.Data),
			HasMore: pageData.HasMore,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleCreateNote(sessions *auth.Manager, svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		u, result := resolveSession(ctx, sessions, req)
		if result != nil {
			return result, nil
		}

		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		note, err := svc.Create(ctx, u.ID, notes.NoteInput{Title: title, Text: text})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %v", err)), nil
		}

		data, _ := json.MarshalIndent(noteToResult(note), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleGetNote(sessions *auth.Manager, svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		u, result := resolveSession(ctx, sessions, req)
		if result != nil {
			return result, nil
		}

		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		note, err := svc.GetByID(ctx, u.ID, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
		}

		data, _ := json.MarshalIndent(noteToResult(note), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleArchiveNote(sessions *auth.Manager, svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		u, result := resolveSession(ctx, sessions, req)
		if result != nil {
			return result, nil
		}

		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		archived := req.GetBool("archived", true)

		if err := svc.SetArchived(ctx, u.ID, id, archived); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to archive note: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("note %s archived=%v", id, archived)), nil
	}
}

func handleDeleteArchived(sessions *auth.Manager, svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		u, result := resolveSession(ctx, sessions, req)
		if result != nil {
			return result, nil
		}

		if err := svc.DeleteArchived(ctx, u.ID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to delete archived notes: %v", err)), nil
		}

		return mcp.NewToolResultText("archived notes deleted"), nil
	}
}

// Helper functions

// resolveSession authenticates the tool call. A missing or dead session
// yields a tool error result; only storage failures are internal.
func resolveSession(ctx context.Context, sessions *auth.Manager, req mcp.CallToolRequest) (*users.User, *mcp.CallToolResult) {
	token, err := req.RequireString("session")
	if err != nil {
		return nil, mcp.NewToolResultError("session is required")
	}

	u, err := sessions.Resolve(ctx, token)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to resolve session: %v", err))
	}
	if u == nil {
		return nil, mcp.NewToolResultError("unauthorized: unknown or expired session")
	}
	return u, nil
}

func noteToResult(n *notes.Note) NoteResult {
	return NoteResult{
		ID:         n.ID.Hex(),
		Title:      n.Title,
		Text:       n.Text,
		HTML:       n.HTML,
		Created:    n.Created,
		IsArchived: n.IsArchived,
	}
}

func notesToResults(noteList []*notes.Note) []NoteResult {
	results := make([]NoteResult, len(noteList))
	for i, n := range noteList {
		results[i] = noteToResult(n)
	}
	return results
}
