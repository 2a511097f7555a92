package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	client, err := ticktick.NewClient("token")
	require.NoError(t, err)
	sc := server.NewServerContext(context.Background(), client, "")
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func toolInvocations(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byStatus := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				status, _ := dp.Attributes.Value("status")
				byStatus[status.AsString()] += dp.Value
			}
		}
	}
	return byStatus
}

func TestInstrumentedToolHandler_NoInstrumentation(t *testing.T) {
	sc := newServerContext(t)

	tests := []struct {
		name    string
		handler ToolHandler
		wantErr bool
		isError bool
	}{
		{
			name: "success",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("ok"), nil
			},
		},
		{
			name: "go error",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, errors.New("boom")
			},
			wantErr: true,
		},
		{
			name: "error result",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultError("bad input"), nil
			},
			isError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := InstrumentedToolHandler("test_tool", sc, tt.handler)(context.Background(), callRequest(nil))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.isError, result.IsError)
		})
	}
}

func TestInstrumentedToolHandlerWithService_RecordsMetricsAndAudit(t *testing.T) {
	sc := newServerContext(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sc.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.AuditLoggingConfig{
		Enabled:          true,
		IncludeArguments: true,
	}))

	ok := InstrumentedToolHandlerWithService("get_task_details", instrumentation.ServiceTickTick, instrumentation.OperationGet, sc,
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("{}"), nil
		})
	failing := InstrumentedToolHandlerWithService("delete_task", instrumentation.ServiceTickTick, instrumentation.OperationDelete, sc,
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("ticktick delete task: status 404"), nil
		})

	_, err = ok(context.Background(), callRequest(map[string]any{"project_id": "p1", "task_id": "t1"}))
	require.NoError(t, err)
	_, err = failing(context.Background(), callRequest(map[string]any{"project_id": "p1", "task_id": "t2"}))
	require.NoError(t, err)

	counts := toolInvocations(t, reader)
	assert.Equal(t, int64(1), counts[instrumentation.StatusSuccess])
	assert.Equal(t, int64(1), counts[instrumentation.StatusError])

	logs := buf.String()
	assert.Contains(t, logs, "tool_executed")
	assert.Contains(t, logs, "tool_failed")
	assert.Contains(t, logs, `"t1"`)
	assert.Contains(t, logs, `"ticktick"`)
}

func TestTargetFromArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		wantProject string
		wantTask    string
	}{
		{"both", map[string]any{"project_id": "p", "task_id": "t"}, "p", "t"},
		{"project only", map[string]any{"project_id": "p"}, "p", ""},
		{"wrong type", map[string]any{"project_id": 7}, "", ""},
		{"nil", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, task := TargetFromArgs(tt.args)
			assert.Equal(t, tt.wantProject, p)
			assert.Equal(t, tt.wantTask, task)
		})
	}
}
