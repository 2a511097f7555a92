package ticktick

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReader serves canned projects. A per-project delay lets tests make
// later projects answer first.
type stubReader struct {
	projects    []ProjectRef
	tasks       map[string][]Task
	delays      map[string]time.Duration
	listErr     error
	projectErrs map[string]error
	fetches     atomic.Int32
}

func (s *stubReader) ListProjectRefs(context.Context) ([]ProjectRef, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.projects, nil
}

func (s *stubReader) GetProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	s.fetches.Add(1)
	if d := s.delays[projectID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.projectErrs[projectID]; err != nil {
		return nil, err
	}
	// Fresh maps per call, as a real decode would produce.
	out := make([]Task, 0, len(s.tasks[projectID]))
	for _, t := range s.tasks[projectID] {
		c := Task{}
		for k, v := range t {
			c[k] = v
		}
		out = append(out, c)
	}
	return out, nil
}

func fixedClock(t *testing.T, tz, value string) func() time.Time {
	t.Helper()
	loc, err := LoadTimezone(tz)
	require.NoError(t, err)
	now, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return func() time.Time { return now }
}

func taskIDs(tasks []Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID())
	}
	return ids
}

func TestTodayTasks_WindowBoundaries(t *testing.T) {
	// Today in Jakarta (UTC+7) is 2024-03-02; it starts at 2024-03-01T17:00Z.
	reader := &stubReader{
		projects: []ProjectRef{{ID: "p1", Name: "Work"}},
		tasks: map[string][]Task{
			"p1": {
				{"id": "at-midnight", "dueDate": "2024-03-01T17:00:00+0000"},
				{"id": "before-midnight", "dueDate": "2024-03-01T16:59:59+0000"},
				{"id": "last-second", "dueDate": "2024-03-02T16:59:59+0000"},
				{"id": "next-midnight", "dueDate": "2024-03-02T17:00:00+0000"},
			},
		},
	}
	agg := NewTodayAggregator(reader, WithClock(fixedClock(t, "Asia/Jakarta", "2024-03-02 09:00")))

	tasks, err := agg.TodayTasks(context.Background(), "Asia/Jakarta")
	require.NoError(t, err)
	assert.Equal(t, []string{"at-midnight", "last-second"}, taskIDs(tasks))
}

func TestTodayTasks_StartDateFallback(t *testing.T) {
	reader := &stubReader{
		projects: []ProjectRef{{ID: "p1", Name: "Work"}},
		tasks: map[string][]Task{
			"p1": {
				{"id": "start-only", "startDate": "2024-03-02T01:00:00+0000"},
				{"id": "empty-due", "dueDate": "", "startDate": "2024-03-02T02:00:00+0000"},
				{"id": "due-wins", "dueDate": "2024-03-05T01:00:00+0000", "startDate": "2024-03-02T01:00:00+0000"},
				{"id": "no-dates"},
			},
		},
	}
	agg := NewTodayAggregator(reader, WithClock(fixedClock(t, "UTC", "2024-03-02 12:00")))

	tasks, err := agg.TodayTasks(context.Background(), "UTC")
	require.NoError(t, err)
	assert.Equal(t, []string{"start-only", "empty-due"}, taskIDs(tasks))
}

func TestTodayTasks_MalformedDatesSkipped(t *testing.T) {
	reader := &stubReader{
		projects: []ProjectRef{{ID: "p1", Name: "Work"}},
		tasks: map[string][]Task{
			"p1": {
				{"id": "bad", "dueDate": "not-a-date"},
				{"id": "number", "dueDate": 12345},
				{"id": "good", "dueDate": "2024-03-02T08:00:00+0000"},
			},
		},
	}
	agg := NewTodayAggregator(reader, WithClock(fixedClock(t, "UTC", "2024-03-02 12:00")))

	tasks, err := agg.TodayTasks(context.Background(), "UTC")
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, taskIDs(tasks))
}

func TestTodayTasks_OrderIsDeterministic(t *testing.T) {
	reader := &stubReader{
		projects: []ProjectRef{{ID: "slow", Name: "Slow"}, {ID: "fast", Name: "Fast"}},
		tasks: map[string][]Task{
			"slow": {{"id": "s1", "dueDate": "2024-03-02T08:00:00+0000"}, {"id": "s2", "dueDate": "2024-03-02T07:00:00+0000"}},
			"fast": {{"id": "f1", "dueDate": "2024-03-02T06:00:00+0000"}},
		},
		delays: map[string]time.Duration{"slow": 50 * time.Millisecond},
	}
	agg := NewTodayAggregator(reader, WithClock(fixedClock(t, "UTC", "2024-03-02 12:00")))

	tasks, err := agg.TodayTasks(context.Background(), "UTC")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "f1"}, taskIDs(tasks))
	assert.Equal(t, "Slow", tasks[0].ProjectName())
	assert.Equal(t, "Fast", tasks[2].ProjectName())
}

func TestTodayTasks_ProjectListFailure(t *testing.T) {
	reader := &stubReader{listErr: &UpstreamError{Op: "list_projects", Method: "GET", Path: "/project", StatusCode: 500}}
	agg := NewTodayAggregator(reader)

	tasks, err := agg.TodayTasks(context.Background(), "UTC")
	require.Error(t, err)
	assert.Nil(t, tasks)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Zero(t, reader.fetches.Load())
}

func TestTodayTasks_ProjectFetchFailureAbortsAll(t *testing.T) {
	reader := &stubReader{
		projects: []ProjectRef{{ID: "p1", Name: "A"}, {ID: "p2", Name: "B"}},
		tasks: map[string][]Task{
			"p1": {{"id": "t1", "dueDate": "2024-03-02T08:00:00+0000"}},
		},
		projectErrs: map[string]error{"p2": errors.New("connection reset")},
	}
	agg := NewTodayAggregator(reader, WithClock(fixedClock(t, "UTC", "2024-03-02 12:00")))

	tasks, err := agg.TodayTasks(context.Background(), "UTC")
	require.Error(t, err)
	assert.Nil(t, tasks)
	assert.Contains(t, err.Error(), "p2")
}

func TestTodayTasks_ProjectWithoutID(t *testing.T) {
	reader := &stubReader{projects: []ProjectRef{{Name: "Broken"}}}
	_, err := NewTodayAggregator(reader).TodayTasks(context.Background(), "UTC")
	assert.Error(t, err)
	assert.Zero(t, reader.fetches.Load())
}

func TestTodayTasks_InvalidTimezone(t *testing.T) {
	reader := &stubReader{}
	_, err := NewTodayAggregator(reader).TodayTasks(context.Background(), "Not/AZone")
	assert.ErrorIs(t, err, ErrInvalidTimezone)

	_, err = NewTodayAggregator(reader).TodayTasks(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestTodayTasks_EmptyResultIsEmptySlice(t *testing.T) {
	reader := &stubReader{projects: []ProjectRef{{ID: "p1", Name: "Empty"}}}
	tasks, err := NewTodayAggregator(reader).TodayTasks(context.Background(), "UTC")
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTodayTasks_FanOutLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	reader := &trackingReader{inFlight: &inFlight, peak: &peak}
	for i := 0; i < 10; i++ {
		reader.projects = append(reader.projects, ProjectRef{ID: string(rune('a' + i))})
	}

	_, err := NewTodayAggregator(reader, WithFanOutLimit(2)).TodayTasks(context.Background(), "UTC")
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

type trackingReader struct {
	projects       []ProjectRef
	inFlight, peak *atomic.Int32
}

func (r *trackingReader) ListProjectRefs(context.Context) ([]ProjectRef, error) {
	return r.projects, nil
}

func (r *trackingReader) GetProjectTasks(context.Context, string) ([]Task, error) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return nil, nil
}

// Two projects over HTTP, one task due today in each.
func TestTodayTasks_WorkHomeScenario(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.handle("GET /project", http.StatusOK, `[{"id":"w","name":"Work"},{"id":"h","name":"Home"}]`)
	api.handle("GET /project/w/data", http.StatusOK, `{"tasks":[
		{"id":"w1","title":"Report","dueDate":"2024-03-02T02:00:00+0000"},
		{"id":"w2","title":"Later","dueDate":"2024-03-09T02:00:00+0000"}]}`)
	api.handle("GET /project/h/data", http.StatusOK, `{"tasks":[
		{"id":"h1","title":"Groceries","startDate":"2024-03-02T10:00:00+0000"},
		{"id":"h2","title":"Someday"}]}`)
	c := newTestClient(t, srv)

	agg := NewTodayAggregator(c, WithClock(fixedClock(t, "Asia/Jakarta", "2024-03-02 08:00")))
	tasks, err := agg.TodayTasks(context.Background(), "Asia/Jakarta")
	require.NoError(t, err)

	require.Len(t, tasks, 2)
	assert.Equal(t, "w1", tasks[0].ID())
	assert.Equal(t, "Work", tasks[0].ProjectName())
	assert.Equal(t, "h1", tasks[1].ID())
	assert.Equal(t, "Home", tasks[1].ProjectName())
	assert.Equal(t, "Groceries", tasks[1].Title())
}
