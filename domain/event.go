package domain

// QueryEvent is the audit record emitted after every dispatched query. Events
// are best effort and never influence the response to the caller.
type QueryEvent struct {
	Query     string `json:"query"`
	Intent    string `json:"intent"`
	Status    int    `json:"status"`
	Timestamp int64  `json:"timestamp"`
}
