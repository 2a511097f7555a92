package ticktick_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/server"
)

// optionalTaskOptions are the schema entries shared by create_task and
// update_task.
func optionalTaskOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("content", mcp.Description("Task content")),
		mcp.WithString("desc", mcp.Description("Checklist description")),
		mcp.WithBoolean("isAllDay", mcp.Description("Whether the task lasts all day")),
		mcp.WithString("startDate", mcp.Description("Start time, e.g. 2019-11-13T03:00:00+0000")),
		mcp.WithString("dueDate", mcp.Description("Due time, e.g. 2019-11-13T03:00:00+0000")),
		mcp.WithString("timeZone", mcp.Description("IANA timezone of the dates, e.g. America/Los_Angeles")),
		mcp.WithArray("reminders", mcp.Description("Reminder triggers, e.g. [\"TRIGGER:P0DT9H0M0S\"]")),
		mcp.WithString("repeatFlag", mcp.Description("Recurrence rule, e.g. RRULE:FREQ=DAILY;INTERVAL=1")),
		mcp.WithNumber("sortOrder", mcp.Description("Sort order of the task")),
		mcp.WithArray("items", mcp.Description("Checklist items")),
	}
}

func taskTools() []toolSpec {
	targetOptions := func(desc string) []mcp.ToolOption {
		return []mcp.ToolOption{
			mcp.WithDescription(desc),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("ID of the project")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("ID of the task")),
		}
	}

	createOptions := append([]mcp.ToolOption{
		mcp.WithDescription("Create a new task in a TickTick project"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("ID of the project")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithNumber("priority", mcp.Description("Priority: 0 none, 1 low, 3 medium, 5 high (default 0)")),
	}, optionalTaskOptions()...)

	updateOptions := append([]mcp.ToolOption{
		mcp.WithDescription("Update an existing TickTick task; only supplied fields change"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("ID of the task")),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("ID of the project")),
		mcp.WithString("title", mcp.Description("Task title")),
		mcp.WithNumber("priority", mcp.Description("Priority: 0 none, 1 low, 3 medium, 5 high")),
	}, optionalTaskOptions()...)

	return []toolSpec{
		{
			tool: mcp.NewTool("get_today_tasks",
				mcp.WithDescription("List tasks due today across all projects. Each task carries its project name in _projectName."),
				mcp.WithString("timezone",
					mcp.Description("IANA timezone that defines today (default: Asia/Jakarta)"),
				),
			),
			operation: instrumentation.OperationAggregate,
			handler:   handleGetTodayTasks,
		},
		{
			tool:      mcp.NewTool("get_task_details", targetOptions("Get a single TickTick task")...),
			operation: instrumentation.OperationGet,
			handler:   handleGetTaskDetails,
		},
		{
			tool:      mcp.NewTool("create_task", createOptions...),
			operation: instrumentation.OperationCreate,
			write:     true,
			handler:   handleCreateTask,
		},
		{
			tool:      mcp.NewTool("update_task", updateOptions...),
			operation: instrumentation.OperationUpdate,
			write:     true,
			handler:   handleUpdateTask,
		},
		{
			tool:      mcp.NewTool("complete_task", targetOptions("Mark a TickTick task as completed")...),
			operation: instrumentation.OperationComplete,
			write:     true,
			handler:   handleCompleteTask,
		},
		{
			tool:      mcp.NewTool("delete_task", targetOptions("Delete a TickTick task")...),
			operation: instrumentation.OperationDelete,
			write:     true,
			handler:   handleDeleteTask,
		},
	}
}

func handleGetTodayTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	tz, err := optionalString(request.GetArguments(), "timezone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timezone := sc.DefaultTimezone()
	if tz != nil {
		timezone = *tz
	}

	tasks, err := sc.Aggregator().TodayTasks(ctx, timezone)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get today's tasks: %v", err)), nil
	}
	return jsonResult(tasks)
}

func handleGetTaskDetails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projectID, taskID, err := taskTarget(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := sc.Client().GetTask(ctx, projectID, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get task %s: %v", taskID, err)), nil
	}
	return jsonResult(task)
}

func handleCreateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	payload, err := createTaskPayload(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := sc.Client().CreateTask(ctx, payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create task: %v", err)), nil
	}
	return jsonResult(task)
}

func handleUpdateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	taskID, payload, err := updateTaskPayload(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := sc.Client().UpdateTask(ctx, taskID, payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update task %s: %v", taskID, err)), nil
	}
	return jsonResult(task)
}

func handleCompleteTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projectID, taskID, err := taskTarget(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ack, err := sc.Client().CompleteTask(ctx, projectID, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to complete task %s: %v", taskID, err)), nil
	}
	return jsonResult(ack)
}

func handleDeleteTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projectID, taskID, err := taskTarget(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ack, err := sc.Client().DeleteTask(ctx, projectID, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete task %s: %v", taskID, err)), nil
	}
	return jsonResult(ack)
}

func taskTarget(args map[string]any) (projectID, taskID string, err error) {
	if projectID, err = requiredString(args, "project_id"); err != nil {
		return "", "", err
	}
	if taskID, err = requiredString(args, "task_id"); err != nil {
		return "", "", err
	}
	return projectID, taskID, nil
}
