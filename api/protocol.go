package api

const queryMaxSize = 64 * 1024 // 64 KiB

// POST /api/query request body
type queryRequest struct {
	Query string `json:"query"`
}

// POST /api/tasks request body
type createTaskRequest struct {
	Title string `json:"title"`
	Time  string `json:"time"`
}

type createTaskResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId"`
}

type deleteTaskResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}
