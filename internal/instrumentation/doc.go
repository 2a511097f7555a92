// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the ticktick-mcp server.
//
// # Metrics
//
// Server/HTTP:
//   - http_requests_total, http_request_duration_seconds by method, path and status
//   - active_sessions by transport
//
// Upstream:
//   - ticktick_api_operations_total, ticktick_api_operation_duration_seconds
//     by service, operation and status
//   - today_tasks_matched_total
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds by tool and status
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>) and upstream calls
// (ticktick.<operation>). Outbound HTTP requests are additionally traced by
// the otelhttp transport of the TickTick client.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: ticktick-mcp)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ARGUMENTS
package instrumentation
