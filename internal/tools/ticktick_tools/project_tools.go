package ticktick_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/server"
)

func projectTools() []toolSpec {
	return []toolSpec{
		{
			tool: mcp.NewTool("get_projects",
				mcp.WithDescription("List all TickTick projects of the authenticated user"),
			),
			operation: instrumentation.OperationList,
			handler:   handleGetProjects,
		},
		{
			tool: mcp.NewTool("project_details",
				mcp.WithDescription("Get a TickTick project together with its tasks and columns"),
				mcp.WithString("project_id",
					mcp.Required(),
					mcp.Description("ID of the project"),
				),
			),
			operation: instrumentation.OperationGet,
			handler:   handleProjectDetails,
		},
		{
			tool: mcp.NewTool("create_project",
				mcp.WithDescription("Create a new TickTick project"),
				mcp.WithString("project_name",
					mcp.Required(),
					mcp.Description("Name of the new project"),
				),
			),
			operation: instrumentation.OperationCreate,
			write:     true,
			handler:   handleCreateProject,
		},
	}
}

func handleGetProjects(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects, err := sc.Client().ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list projects: %v", err)), nil
	}
	return jsonResult(projects)
}

func handleProjectDetails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projectID, err := requiredString(request.GetArguments(), "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := sc.Client().GetProjectData(ctx, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get project %s: %v", projectID, err)), nil
	}
	return jsonResult(data)
}

func handleCreateProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	name, err := requiredString(request.GetArguments(), "project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	project, err := sc.Client().CreateProject(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create project: %v", err)), nil
	}
	return jsonResult(project)
}
