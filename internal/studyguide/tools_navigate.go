package studyguide

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/mcp-guide-search/internal/page"
)

// Navigation directions.
const (
	DirectionNext     = "next"
	DirectionPrevious = "previous"
)

// NavigateArgument defines navigation parameters.
type NavigateArgument struct {
	Direction string `json:"direction" jsonschema:"Either next or previous. Navigation wraps around at both ends"`
}

// NavigateHandler handles the navigate_matches MCP tool.
type NavigateHandler struct {
	service *Service
}

// NewNavigateHandler creates a new navigate handler.
func NewNavigateHandler(service *Service) *NavigateHandler {
	return &NavigateHandler{service: service}
}

// Handle moves the highlight cursor.
func (h *NavigateHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args NavigateArgument) (*mcp.CallToolResult, any, error) {
	var (
		snap Snapshot
		err  error
	)

	switch strings.ToLower(strings.TrimSpace(args.Direction)) {
	case DirectionNext, "":
		snap, err = h.service.Next()
	case DirectionPrevious, "prev":
		snap, err = h.service.Previous()
	default:
		return errorResult(fmt.Sprintf("Unknown direction: %s (expected next or previous)", args.Direction)), nil, nil
	}
	if err != nil {
		return serviceErrorResult(err), nil, nil
	}

	return textResult(FormatNavigation(snap)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *NavigateHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "navigate_matches",
		Description: "Move to the next or previous highlighted match of the last search and show it in context",
	}
}

// RegisterNavigateTool registers the navigate tool with an MCP server.
func RegisterNavigateTool(server *mcp.Server, service *Service) {
	handler := NewNavigateHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// OpenArgument defines open_result parameters.
type OpenArgument struct {
	Index int `json:"index" jsonschema:"Result number as listed by search_guide, starting at 1"`
}

// OpenHandler handles the open_result MCP tool.
type OpenHandler struct {
	service *Service
}

// NewOpenHandler creates a new open handler.
func NewOpenHandler(service *Service) *OpenHandler {
	return &OpenHandler{service: service}
}

// Handle jumps to a result and returns its block with highlights.
func (h *OpenHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args OpenArgument) (*mcp.CallToolResult, any, error) {
	block, err := h.service.OpenResult(args.Index-1, page.MarkdownStyle)
	if err != nil {
		if errors.Is(err, ErrResultOutOfRange) {
			return errorResult(fmt.Sprintf("No result number %d", args.Index)), nil, nil
		}
		return serviceErrorResult(err), nil, nil
	}

	return textResult(FormatBlock(block)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *OpenHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "open_result",
		Description: "Open a result of the last search and show the full guide block with its matches highlighted",
	}
}

// RegisterOpenTool registers the open tool with an MCP server.
func RegisterOpenTool(server *mcp.Server, service *Service) {
	handler := NewOpenHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// ClearArgument has no parameters.
type ClearArgument struct{}

// ClearHandler handles the clear_search MCP tool.
type ClearHandler struct {
	service *Service
}

// NewClearHandler creates a new clear handler.
func NewClearHandler(service *Service) *ClearHandler {
	return &ClearHandler{service: service}
}

// Handle clears the search session.
func (h *ClearHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ClearArgument) (*mcp.CallToolResult, any, error) {
	if err := h.service.Clear(); err != nil {
		return serviceErrorResult(err), nil, nil
	}
	return textResult("Search cleared"), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ClearHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "clear_search",
		Description: "Clear the current search results and highlights",
	}
}

// RegisterClearTool registers the clear tool with an MCP server.
func RegisterClearTool(server *mcp.Server, service *Service) {
	handler := NewClearHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
