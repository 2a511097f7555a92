// Package resources provides read-only MCP resources for clients that
// browse data instead of calling tools:
//   - ticktick://projects: the project list
//   - ticktick://today: tasks due today in the server's default timezone
package resources
