package ticktick

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/logging"
)

const (
	// DefaultTimezone is used when a caller does not name a timezone.
	DefaultTimezone = "Asia/Jakarta"

	// DefaultFanOutLimit bounds concurrent project fetches.
	DefaultFanOutLimit = 4
)

// ProjectReader is the part of Client the aggregator depends on.
type ProjectReader interface {
	ListProjectRefs(ctx context.Context) ([]ProjectRef, error)
	GetProjectTasks(ctx context.Context, projectID string) ([]Task, error)
}

// TodayAggregator collects the tasks due today across all projects.
type TodayAggregator struct {
	reader  ProjectReader
	now     func() time.Time
	limit   int
	metrics *instrumentation.Metrics
	logger  logging.Logger
}

// AggregatorOption configures a TodayAggregator.
type AggregatorOption func(*TodayAggregator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *TodayAggregator) { a.now = now }
}

// WithFanOutLimit sets the number of concurrent project fetches.
func WithFanOutLimit(n int) AggregatorOption {
	return func(a *TodayAggregator) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithAggregatorMetrics records the number of matched tasks.
func WithAggregatorMetrics(m *instrumentation.Metrics) AggregatorOption {
	return func(a *TodayAggregator) { a.metrics = m }
}

// WithAggregatorLogger sets the logger.
func WithAggregatorLogger(l logging.Logger) AggregatorOption {
	return func(a *TodayAggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewTodayAggregator returns an aggregator reading from r.
func NewTodayAggregator(r ProjectReader, opts ...AggregatorOption) *TodayAggregator {
	a := &TodayAggregator{
		reader: r,
		now:    time.Now,
		limit:  DefaultFanOutLimit,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TodayTasks returns every task whose due date, or start date when no due
// date is set, falls within today in timezone. Each task is tagged with
// the name of its project under ProjectNameKey. Tasks are ordered by
// project, then by their position within the project.
//
// Tasks without a usable date are skipped. Any failed upstream call fails
// the whole aggregation.
func (a *TodayAggregator) TodayTasks(ctx context.Context, timezone string) ([]Task, error) {
	loc, err := LoadTimezone(timezone)
	if err != nil {
		return nil, err
	}
	start, end := TodayWindow(a.now(), loc)

	ctx, span := instrumentation.StartSpan(ctx, "ticktick.today_tasks",
		attribute.String(instrumentation.SpanAttrTimezone, timezone))
	defer span.End()

	projects, err := a.reader.ListProjectRefs(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	perProject, err := a.fetchAll(ctx, projects)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	matched := make([]Task, 0)
	skipped := 0
	for i, tasks := range perProject {
		for _, task := range tasks {
			due, ok := taskDue(task)
			if !ok {
				skipped++
				continue
			}
			if local := due.In(loc); local.Before(start) || !local.Before(end) {
				continue
			}
			task[ProjectNameKey] = projects[i].Name
			matched = append(matched, task)
		}
	}

	a.logger.Debug("aggregated today's tasks",
		"timezone", timezone,
		"projects", len(projects),
		"matched", len(matched),
		"skipped", skipped)
	a.metrics.RecordTodayTasks(ctx, len(matched))
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrTaskCount, len(matched)))
	instrumentation.SetSpanSuccess(span)

	return matched, nil
}

// fetchAll loads the tasks of every project concurrently. Results are
// indexed like projects; the first failure cancels the remaining fetches.
func (a *TodayAggregator) fetchAll(ctx context.Context, projects []ProjectRef) ([][]Task, error) {
	for i, p := range projects {
		if p.ID == "" {
			return nil, fmt.Errorf("project %d (%q) has no id", i, p.Name)
		}
	}

	results := make([][]Task, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i, p := range projects {
		g.Go(func() error {
			tasks, err := a.reader.GetProjectTasks(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch tasks of project %s: %w", p.ID, err)
			}
			results[i] = tasks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// taskDue returns the instant a task is due, falling back to its start date.
func taskDue(t Task) (time.Time, bool) {
	raw := t.DueDate()
	if raw == "" {
		raw = t.StartDate()
	}
	if raw == "" {
		return time.Time{}, false
	}

	due, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}
