// Package ticktick_tools provides MCP tools for TickTick projects and tasks.
//
// # Available Tools
//
// Projects:
//   - get_projects: List all projects
//   - project_details: Get a project with its tasks and columns
//   - create_project: Create a project
//
// Tasks:
//   - get_today_tasks: Tasks due today across all projects
//   - get_task_details: Get a single task
//   - create_task: Create a task
//   - update_task: Update fields of a task
//   - complete_task: Mark a task as completed
//   - delete_task: Delete a task
//
// In read-only mode only get_projects, project_details, get_today_tasks and
// get_task_details are registered.
//
// Optional task fields are sent upstream only when the caller supplies them.
// A missing argument and an explicit null are both treated as not supplied.
package ticktick_tools
