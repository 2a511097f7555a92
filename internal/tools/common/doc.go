// Package common provides helpers shared by the MCP tool packages: handler
// instrumentation and audit target extraction.
package common
