package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/server"
)

// Resource URIs.
const (
	ProjectsURI = "ticktick://projects"
	TodayURI    = "ticktick://today"
)

const mimeJSON = "application/json"

// RegisterTickTickResources registers the TickTick resources with the MCP server.
func RegisterTickTickResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.Client() == nil {
		return fmt.Errorf("ticktick client is required")
	}

	projectsResource := mcp.NewResource(
		ProjectsURI,
		"TickTick Projects",
		mcp.WithResourceDescription("All projects of the authenticated TickTick user"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(projectsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProjects(ctx, request, sc)
	})

	todayResource := mcp.NewResource(
		TodayURI,
		"Today's Tasks",
		mcp.WithResourceDescription(fmt.Sprintf("Tasks due today across all projects (timezone %s)", sc.DefaultTimezone())),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(todayResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleToday(ctx, request, sc)
	})

	return nil
}

func handleProjects(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	projects, err := sc.Client().ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, projects, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format projects: %w", err)
	}
	return textContents(request.Params.URI, buf.String()), nil
}

func handleToday(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	tasks, err := sc.Aggregator().TodayTasks(ctx, sc.DefaultTimezone())
	if err != nil {
		return nil, fmt.Errorf("failed to get today's tasks: %w", err)
	}

	jsonData, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return textContents(request.Params.URI, string(jsonData)), nil
}

func textContents(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     text,
		},
	}
}
