package resources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

func newTestContext(t *testing.T, routes map[string]string) *server.ServerContext {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := ticktick.NewClient("token", ticktick.WithBaseURL(srv.URL))
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	sc := server.NewServerContext(context.Background(), client, "UTC",
		ticktick.WithClock(func() time.Time { return now }))
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func readRequest(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func TestHandleProjects(t *testing.T) {
	sc := newTestContext(t, map[string]string{
		"/project": `[{"id":"p1","name":"Work"}]`,
	})

	contents, err := handleProjects(context.Background(), readRequest(ProjectsURI), sc)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, ProjectsURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.JSONEq(t, `[{"id":"p1","name":"Work"}]`, text.Text)
}

func TestHandleToday(t *testing.T) {
	sc := newTestContext(t, map[string]string{
		"/project":         `[{"id":"p1","name":"Work"}]`,
		"/project/p1/data": `{"tasks":[{"id":"a","dueDate":"2024-03-10T08:00:00.000+0000"},{"id":"b","dueDate":"2024-03-12T08:00:00+0000"}]}`,
	})

	contents, err := handleToday(context.Background(), readRequest(TodayURI), sc)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text := contents[0].(*mcp.TextResourceContents)
	assert.JSONEq(t, `[{"id":"a","dueDate":"2024-03-10T08:00:00.000+0000","_projectName":"Work"}]`, text.Text)
}

func TestHandleToday_UpstreamFailure(t *testing.T) {
	sc := newTestContext(t, map[string]string{})

	_, err := handleToday(context.Background(), readRequest(TodayURI), sc)
	assert.Error(t, err)
}

func TestRegisterTickTickResources(t *testing.T) {
	sc := newTestContext(t, map[string]string{})
	s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithResourceCapabilities(false, false))

	require.NoError(t, RegisterTickTickResources(s, sc))
	assert.Error(t, RegisterTickTickResources(s, nil))
}
