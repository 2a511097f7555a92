package common

// TargetFromArgs returns the project and task ids a tool call addresses,
// for audit records. Missing or non-string values yield "".
func TargetFromArgs(args map[string]any) (projectID, taskID string) {
	projectID, _ = args["project_id"].(string)
	taskID, _ = args["task_id"].(string)
	return projectID, taskID
}
