package studyguide

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/mcp-guide-search/internal/domain"
)

// ListArgument defines list_entries parameters.
type ListArgument struct {
	Category string `json:"category,omitempty" jsonschema:"Limit the listing to one category: topic, definition, theorem, property or notation"`
}

// ListHandler handles the list_entries MCP tool.
type ListHandler struct {
	service *Service
}

// NewListHandler creates a new list handler.
func NewListHandler(service *Service) *ListHandler {
	return &ListHandler{service: service}
}

// Handle lists the index entries.
func (h *ListHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ListArgument) (*mcp.CallToolResult, any, error) {
	category := domain.CategoryUnknown
	if name := strings.TrimSpace(args.Category); name != "" {
		category = domain.ParseCategory(name)
		if category == domain.CategoryUnknown {
			return errorResult(fmt.Sprintf("Unknown category: %s", args.Category)), nil, nil
		}
	}

	entries, err := h.service.Entries(category)
	if err != nil {
		return serviceErrorResult(err), nil, nil
	}

	return textResult(FormatEntries(entries)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ListHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_entries",
		Description: "List the indexed entries of the study guide with their category and title",
	}
}

// RegisterListTool registers the list tool with an MCP server.
func RegisterListTool(server *mcp.Server, service *Service) {
	handler := NewListHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
