package studyguide

import (
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers all study guide tools with an MCP server.
func RegisterTools(server *mcp.Server, service *Service) {
	RegisterSearchTool(server, service)
	RegisterNavigateTool(server, service)
	RegisterOpenTool(server, service)
	RegisterClearTool(server, service)
	RegisterListTool(server, service)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// serviceErrorResult maps service errors to tool results.
func serviceErrorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, ErrNotReady) {
		return errorResult("Search is not available. The study guide is not loaded yet. Please try again later.")
	}
	return errorResult(err.Error())
}
