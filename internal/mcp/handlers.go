package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// IDRequest represents the arguments of tools addressing one deck.
type IDRequest struct {
	ID string `json:"id"`
}

// CreateRequest represents the arguments for deck_create.
type CreateRequest struct {
	Title string `json:"title,omitempty"`
}

// GenerateRequest represents the arguments for deck_generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// ExportRequest represents the arguments for deck_export.
type ExportRequest struct {
	ID     string `json:"id"`
	Format string `json:"format,omitempty"`
}

// TransformRequest represents the arguments for text_transform.
type TransformRequest struct {
	Text        string `json:"text"`
	Instruction string `json:"instruction"`
}

// SuggestRequest represents the arguments for image_suggest.
type SuggestRequest struct {
	SlideText string `json:"slide_text"`
}

// caller resolves the configured acting user on every call, so accounts
// created after startup work without a restart.
func (h *Handlers) caller(ctx context.Context) (ops.Caller, error) {
	email := ""
	if h.env.Config != nil {
		email = h.env.Config.MCP.UserEmail
	}
	if email == "" {
		return ops.Caller{}, errors.NewUnauthorized("no acting user: set mcp.user_email in config.json")
	}
	c, err := ops.CallerByEmail(ctx, h.env, email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return ops.Caller{}, errors.NewUnauthorized("acting user " + email + " does not exist")
		}
		return ops.Caller{}, err
	}
	return c, nil
}

// call decodes the arguments, resolves the caller and runs fn.
func call[T any](ctx context.Context, h *Handlers, req mcp.CallToolRequest, fn func(ops.Caller, T) (any, error)) (*mcp.CallToolResult, error) {
	input, err := decode[T](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	c, err := h.caller(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := fn(c, input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDeckList handles the deck_list tool call.
func (h *Handlers) HandleDeckList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(ctx, h, req, func(c ops.Caller, _ struct{}) (any, error) {
		decks, err := ops.ListDecks(ctx, h.env, c)
		if err != nil {
			return nil, err
		}
		return map[string]any{"presentations": decks}, nil
	})
}

// HandleDeckFetch handles the deck_fetch tool call.
func (h *Handlers) HandleDeckFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(ctx, h, req, func(c ops.Caller, in IDRequest) (any, error) {
		return ops.GetDeck(ctx, h.env, c, in.ID)
	})
}

// HandleDeckCreate handles the deck_create tool call.
func (h *Handlers) HandleDeckCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(ctx, h, req, func(c ops.Caller, in CreateRequest) (any, error) {
		return ops.CreateDeck(ctx, h.env, c, ops.CreateDeckInput{Title: in.Title})
	})
}

// HandleDeckDelete handles the deck_delete tool call.
func (h *Handlers) HandleDeckDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(ctx, h, req, func(c ops.Caller, in IDRequest) (any, error) {
		if err := ops.DeleteDeck(ctx, h.env, c, in.ID); err != nil {
			return nil, err
		}
		return map[string]any{"id": in.ID, "deleted": true}, nil
	})
}

// HandleDeckGenerate handles the deck_generate tool call.
func (h *Handlers) HandleDeckGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(ctx, h, req, func(c ops.Caller, in GenerateRequest) (any, error) {
		return ops.GenerateDeck(ctx, h.env, c, ops.GenerateDeckInput{Prompt: in.Prompt})
	})
}

// HandleDeckExport handles the deck_export tool call. Files always land in
// the exports directory; agents cannot pick a destination.
func (h *Handlers) HandleDeckExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(ctx, h, req, func(c ops.Caller, in ExportRequest) (any, error) {
		return ops.ExportToFile(ctx, h.env, c, ops.ExportToFileInput{ID: in.ID, Format: in.Format})
	})
}

// HandleTextTransform handles the text_transform tool call.
func (h *Handlers) HandleTextTransform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(ctx, h, req, func(c ops.Caller, in TransformRequest) (any, error) {
		return ops.TransformText(ctx, h.env, c, ops.TransformTextInput{Text: in.Text, Instruction: in.Instruction})
	})
}

// HandleImageSuggest handles the image_suggest tool call.
func (h *Handlers) HandleImageSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(ctx, h, req, func(c ops.Caller, in SuggestRequest) (any, error) {
		return ops.SuggestImage(ctx, h.env, c, ops.SuggestImageInput{SlideText: in.SlideText})
	})
}

// errorResult creates an MCP error result with IsError set. Internal causes
// and details stay out of the payload.
func errorResult(err error) *mcp.CallToolResult {
	appErr := errors.As(err)
	errorObj := map[string]any{
		"code":    appErr.Code,
		"message": appErr.Message,
		"status":  appErr.Status,
	}
	if appErr.Code != errors.ErrInternal && appErr.Details != nil {
		errorObj["details"] = appErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
