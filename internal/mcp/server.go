// Package mcp exposes deck operations as MCP tools over stdio.
package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/slidecraft/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"deck_list": {
		def:     deckListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckList },
	},
	"deck_fetch": {
		def:     deckFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckFetch },
	},
	"deck_create": {
		def:     deckCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckCreate },
	},
	"deck_delete": {
		def:     deckDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckDelete },
	},
	"deck_generate": {
		def:     deckGenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckGenerate },
	},
	"deck_export": {
		def:     deckExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckExport },
	},
	"text_transform": {
		def:     textTransformToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTextTransform },
	},
	"image_suggest": {
		def:     imageSuggestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImageSuggest },
	},
}

// AllToolNames returns every tool name in sorted order.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns the names that match no tool.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the deck tools registered, minus
// those listed in the config's MCP disabled tools.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"slidecraft",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	if env.Config != nil {
		for _, name := range env.Config.MCP.DisabledTools {
			disabled[name] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the tools on stdin/stdout until the client disconnects.
func Run(env *ops.Env, version string) error {
	return server.ServeStdio(NewServer(env, version))
}
