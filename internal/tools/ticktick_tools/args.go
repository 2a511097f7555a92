package ticktick_tools

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// present reports whether args carries a non-null value for name.
func present(args map[string]any, name string) (any, bool) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func requiredString(args map[string]any, name string) (string, error) {
	v, ok := present(args, name)
	if !ok {
		return "", fmt.Errorf("%s is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return s, nil
}

func optionalString(args map[string]any, name string) (*string, error) {
	v, ok := present(args, name)
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s must be a string", name)
	}
	return &s, nil
}

func optionalBool(args map[string]any, name string) (*bool, error) {
	v, ok := present(args, name)
	if !ok {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%s must be a boolean", name)
	}
	return &b, nil
}

func optionalInt(args map[string]any, name string) (*int64, error) {
	v, ok := present(args, name)
	if !ok {
		return nil, nil
	}

	var n int64
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || x >= 1<<63 || x < -(1<<63) {
			return nil, fmt.Errorf("%s must be an integer", name)
		}
		n = int64(x)
	case int:
		n = int64(x)
	case int64:
		n = x
	case json.Number:
		parsed, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", name)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}

// optionalArray returns the JSON encoding of an array argument.
func optionalArray(args map[string]any, name string) (json.RawMessage, error) {
	v, ok := present(args, name)
	if !ok {
		return nil, nil
	}
	if _, ok := v.([]any); !ok {
		return nil, fmt.Errorf("%s must be an array", name)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return data, nil
}

// taskFields fills the optional task fields from args. Fields the caller
// did not supply stay nil and are left out of the request body.
func taskFields(args map[string]any, p *ticktick.TaskPayload) error {
	var err error
	stringFields := []struct {
		name string
		dst  **string
	}{
		{"title", &p.Title},
		{"content", &p.Content},
		{"desc", &p.Desc},
		{"startDate", &p.StartDate},
		{"dueDate", &p.DueDate},
		{"timeZone", &p.TimeZone},
		{"repeatFlag", &p.RepeatFlag},
	}
	for _, f := range stringFields {
		if *f.dst, err = optionalString(args, f.name); err != nil {
			return err
		}
	}

	if p.IsAllDay, err = optionalBool(args, "isAllDay"); err != nil {
		return err
	}

	priority, err := optionalInt(args, "priority")
	if err != nil {
		return err
	}
	if priority != nil {
		if *priority < math.MinInt32 || *priority > math.MaxInt32 {
			return fmt.Errorf("priority out of range")
		}
		v := int(*priority)
		p.Priority = &v
	}

	if p.SortOrder, err = optionalInt(args, "sortOrder"); err != nil {
		return err
	}
	if p.Reminders, err = optionalArray(args, "reminders"); err != nil {
		return err
	}
	if p.Items, err = optionalArray(args, "items"); err != nil {
		return err
	}
	return nil
}

// createTaskPayload builds the body for create_task. Priority defaults to
// 0 unless the argument is present; an explicit null leaves it out.
func createTaskPayload(args map[string]any) (ticktick.TaskPayload, error) {
	projectID, err := requiredString(args, "project_id")
	if err != nil {
		return ticktick.TaskPayload{}, err
	}
	title, err := requiredString(args, "title")
	if err != nil {
		return ticktick.TaskPayload{}, err
	}

	p := ticktick.TaskPayload{ProjectID: projectID}
	if err := taskFields(args, &p); err != nil {
		return ticktick.TaskPayload{}, err
	}
	p.Title = &title

	if _, supplied := args["priority"]; !supplied {
		zero := 0
		p.Priority = &zero
	}
	return p, nil
}

// updateTaskPayload builds the body for update_task. Every field except
// the ids is optional and has no default.
func updateTaskPayload(args map[string]any) (taskID string, p ticktick.TaskPayload, err error) {
	taskID, err = requiredString(args, "task_id")
	if err != nil {
		return "", ticktick.TaskPayload{}, err
	}
	projectID, err := requiredString(args, "project_id")
	if err != nil {
		return "", ticktick.TaskPayload{}, err
	}

	p = ticktick.TaskPayload{ID: taskID, ProjectID: projectID}
	if err := taskFields(args, &p); err != nil {
		return "", ticktick.TaskPayload{}, err
	}
	return taskID, p, nil
}
