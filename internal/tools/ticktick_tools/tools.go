package ticktick_tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/tools/common"
)

type handlerFunc func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

type toolSpec struct {
	tool      mcp.Tool
	operation string
	write     bool
	handler   handlerFunc
}

// RegisterTickTickTools registers the TickTick tools with the MCP server.
// Write tools are skipped when readOnly is set.
func RegisterTickTickTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil || sc.Client() == nil {
		return fmt.Errorf("ticktick client is required")
	}

	for _, ts := range append(projectTools(), taskTools()...) {
		if readOnly && ts.write {
			continue
		}
		s.AddTool(ts.tool, common.InstrumentedToolHandlerWithService(
			ts.tool.Name, instrumentation.ServiceTickTick, ts.operation, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return ts.handler(ctx, request, sc)
			}))
	}
	return nil
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	if raw, ok := v.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to format response: %v", err)), nil
		}
		return mcp.NewToolResultText(buf.String()), nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
