package ticktick

import (
	"encoding/json"
)

// Ack is the fixed acknowledgement returned by operations whose upstream
// response body is discarded.
type Ack struct {
	Message string `json:"message"`
}

// Acknowledgements for complete and delete.
var (
	AckCompleted = Ack{Message: "Task completed"}
	AckDeleted   = Ack{Message: "Task deleted"}
)

// ProjectRef is the subset of a project the aggregator needs.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectNameKey is the field added to every task returned by the
// today aggregation.
const ProjectNameKey = "_projectName"

// Task is an upstream task kept as a generic JSON object so that unknown
// fields are passed through unchanged.
type Task map[string]any

func (t Task) str(key string) string {
	s, _ := t[key].(string)
	return s
}

// ID returns the task id.
func (t Task) ID() string { return t.str("id") }

// Title returns the task title.
func (t Task) Title() string { return t.str("title") }

// DueDate returns the raw dueDate value, or "" when absent.
func (t Task) DueDate() string { return t.str("dueDate") }

// StartDate returns the raw startDate value, or "" when absent.
func (t Task) StartDate() string { return t.str("startDate") }

// ProjectName returns the project name attached by the aggregator.
func (t Task) ProjectName() string { return t.str(ProjectNameKey) }

// TaskPayload is the request body of create and update. Nil pointers and
// empty raw messages are omitted from the encoded JSON, so only the fields
// a caller supplied reach the upstream API.
type TaskPayload struct {
	ID        string `json:"id,omitempty"`
	ProjectID string `json:"projectId"`

	Title      *string         `json:"title,omitempty"`
	Content    *string         `json:"content,omitempty"`
	Desc       *string         `json:"desc,omitempty"`
	IsAllDay   *bool           `json:"isAllDay,omitempty"`
	StartDate  *string         `json:"startDate,omitempty"`
	DueDate    *string         `json:"dueDate,omitempty"`
	TimeZone   *string         `json:"timeZone,omitempty"`
	Reminders  json.RawMessage `json:"reminders,omitempty"`
	RepeatFlag *string         `json:"repeatFlag,omitempty"`
	Priority   *int            `json:"priority,omitempty"`
	SortOrder  *int64          `json:"sortOrder,omitempty"`
	Items      json.RawMessage `json:"items,omitempty"`
}
