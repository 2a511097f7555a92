package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/logging"
)

const (
	// DefaultBaseURL is the TickTick Open API root.
	DefaultBaseURL = "https://api.ticktick.com/open/v1"

	// DefaultTimeout bounds every upstream request.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 10 << 20
	maxErrorBody     = 512
)

// operation names a client call for spans, logs and metrics.
type operation struct {
	name string
	kind string
}

var (
	opListProjects   = operation{"list_projects", instrumentation.OperationList}
	opGetProjectData = operation{"get_project_data", instrumentation.OperationGet}
	opGetTask        = operation{"get_task", instrumentation.OperationGet}
	opCreateProject  = operation{"create_project", instrumentation.OperationCreate}
	opCreateTask     = operation{"create_task", instrumentation.OperationCreate}
	opUpdateTask     = operation{"update_task", instrumentation.OperationUpdate}
	opCompleteTask   = operation{"complete_task", instrumentation.OperationComplete}
	opDeleteTask     = operation{"delete_task", instrumentation.OperationDelete}
)

// Client talks to the TickTick Open API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	metrics    *instrumentation.Metrics
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records upstream operation metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a client authenticating with a static bearer token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	return NewClientWithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}), opts...), nil
}

// NewClientWithTokenSource returns a client that takes its bearer token
// from ts, e.g. a refreshing source built by Config.TokenSource.
func NewClientWithTokenSource(ts oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		logger:  logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.httpClient = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, ts),
			Base:   otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	return c
}

// BaseURL returns the API root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProjects returns the raw project list.
func (c *Client) ListProjects(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, opListProjects, http.MethodGet, "/project", nil)
}

// ListProjectRefs returns the id and name of every project.
func (c *Client) ListProjectRefs(ctx context.Context) ([]ProjectRef, error) {
	raw, err := c.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	var projects []ProjectRef
	if err := json.Unmarshal(raw, &projects); err != nil {
		return nil, &UpstreamError{Op: opListProjects.name, Method: http.MethodGet, Path: "/project", StatusCode: http.StatusOK, Err: fmt.Errorf("failed to decode projects: %w", err)}
	}
	return projects, nil
}

// GetProjectData returns a project together with its tasks and columns.
func (c *Client) GetProjectData(ctx context.Context, projectID string) (json.RawMessage, error) {
	return c.doJSON(ctx, opGetProjectData, http.MethodGet, projectPath(projectID)+"/data", nil)
}

// GetProjectTasks returns the tasks of a project. A project without a
// tasks field has no tasks.
func (c *Client) GetProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	path := projectPath(projectID) + "/data"
	raw, err := c.doJSON(ctx, opGetProjectData, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Tasks []Task `json:"tasks"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, &UpstreamError{Op: opGetProjectData.name, Method: http.MethodGet, Path: path, StatusCode: http.StatusOK, Err: fmt.Errorf("failed to decode project data: %w", err)}
	}
	return data.Tasks, nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, projectID, taskID string) (json.RawMessage, error) {
	return c.doJSON(ctx, opGetTask, http.MethodGet, taskPath(projectID, taskID), nil)
}

// CreateProject creates a project with the given name.
func (c *Client) CreateProject(ctx context.Context, name string) (json.RawMessage, error) {
	body := struct {
		Name string `json:"name"`
	}{Name: name}
	return c.doJSON(ctx, opCreateProject, http.MethodPost, "/project", body)
}

// CreateTask creates a task. payload.ID is ignored.
func (c *Client) CreateTask(ctx context.Context, payload TaskPayload) (json.RawMessage, error) {
	payload.ID = ""
	return c.doJSON(ctx, opCreateTask, http.MethodPost, "/task", payload)
}

// UpdateTask updates the task taskID. The id is also sent in the body.
func (c *Client) UpdateTask(ctx context.Context, taskID string, payload TaskPayload) (json.RawMessage, error) {
	payload.ID = taskID
	return c.doJSON(ctx, opUpdateTask, http.MethodPost, "/task/"+url.PathEscape(taskID), payload)
}

// CompleteTask marks a task as completed. The response body is discarded.
func (c *Client) CompleteTask(ctx context.Context, projectID, taskID string) (Ack, error) {
	if _, err := c.do(ctx, opCompleteTask, http.MethodPost, taskPath(projectID, taskID)+"/complete", nil); err != nil {
		return Ack{}, err
	}
	return AckCompleted, nil
}

// DeleteTask deletes a task. The response body is discarded.
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) (Ack, error) {
	if _, err := c.do(ctx, opDeleteTask, http.MethodDelete, taskPath(projectID, taskID), nil); err != nil {
		return Ack{}, err
	}
	return AckDeleted, nil
}

func projectPath(projectID string) string {
	return "/project/" + url.PathEscape(projectID)
}

func taskPath(projectID, taskID string) string {
	return projectPath(projectID) + "/task/" + url.PathEscape(taskID)
}

// doJSON is do for operations whose response must be a JSON document.
func (c *Client) doJSON(ctx context.Context, op operation, method, path string, body any) (json.RawMessage, error) {
	data, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, &UpstreamError{Op: op.name, Method: method, Path: path, StatusCode: http.StatusOK, Err: ErrInvalidJSON}
	}
	return json.RawMessage(data), nil
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op operation, method, path string, body any) (data []byte, err error) {
	start := time.Now()
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceTickTick, op.name)
	defer span.End()

	status := 0
	defer func() {
		result := instrumentation.StatusSuccess
		if err != nil {
			result = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPStatus, status))
		c.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceTickTick, op.kind, result, time.Since(start))
		c.logger.Debug("ticktick request",
			logging.Operation(op.name),
			"method", method,
			"path", path,
			"status_code", status,
			"duration", time.Since(start),
			logging.Err(err))
	}()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op.name, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: op.name, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Op: op.name, Method: method, Path: path, StatusCode: status, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if status < 200 || status > 299 {
		return nil, &UpstreamError{Op: op.name, Method: method, Path: path, StatusCode: status, Body: truncate(string(data), maxErrorBody)}
	}
	return data, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
