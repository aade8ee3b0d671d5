package api

import "time"

// ErrorResp is the generic error envelope for transport-level failures.
// Tool-level failures are reported inside the dispatch result instead.
type ErrorResp struct {
	Detail string `json:"detail"`
}

// CallToolReq is the body of POST /v1/tools/call.
type CallToolReq struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// ToolInfoResp describes one registered tool for GET /v1/tools.
type ToolInfoResp struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolListResp is the body of GET /v1/tools.
type ToolListResp struct {
	Tools []ToolInfoResp `json:"tools"`
}

// CallEventResp is one audit record in GET /v1/audit/events.
type CallEventResp struct {
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp"`
	Identity     string    `json:"identity"`
	Role         string    `json:"role"`
	Tool         string    `json:"tool"`
	Operation    string    `json:"operation"`
	Table        *string   `json:"table,omitempty"`
	Outcome      string    `json:"outcome"`
	Detail       *string   `json:"detail,omitempty"`
	QueryPreview *string   `json:"query_preview,omitempty"`
	RowsAffected int64     `json:"rows_affected"`
	RowCount     int       `json:"row_count"`
	LatencyMs    float32   `json:"latency_ms"`
}

// EventListResp is the body of GET /v1/audit/events.
type EventListResp struct {
	Events   []CallEventResp `json:"events"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}
