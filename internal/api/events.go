package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/torchdb/toolgate/internal/audit"
	"go.uber.org/zap"
)

func (d *Dependencies) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	q := r.URL.Query()
	params := audit.ListEventsParams{
		Page:     queryInt(q, "page", 1),
		PageSize: queryInt(q, "page_size", 50),
	}
	if params.PageSize > 200 {
		params.PageSize = 200
	}
	if params.Page < 1 {
		params.Page = 1
	}

	if v := q.Get("identity"); v != "" {
		params.Identity = &v
	}
	if v := q.Get("tool"); v != "" {
		params.Tool = &v
	}
	if v := q.Get("outcome"); v != "" {
		params.Outcome = &v
	}
	if v := q.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.StartTime = &t
		}
	}
	if v := q.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.EndTime = &t
		}
	}

	events, total, err := d.Reader.ListEvents(r.Context(), params)
	if err != nil {
		d.Logger.Error("failed to list events", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list events"})
		return
	}

	resp := EventListResp{
		Events:   make([]CallEventResp, 0, len(events)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, eventToResp(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

func eventToResp(e audit.CallEvent) CallEventResp {
	return CallEventResp{
		RequestID:    e.RequestID,
		Timestamp:    e.Timestamp,
		Identity:     e.Identity,
		Role:         e.Role,
		Tool:         e.Tool,
		Operation:    e.Operation,
		Table:        nilIfEmpty(e.Table),
		Outcome:      e.Outcome,
		Detail:       nilIfEmpty(e.Detail),
		QueryPreview: nilIfEmpty(e.QueryPreview),
		RowsAffected: e.RowsAffected,
		RowCount:     e.RowCount,
		LatencyMs:    e.LatencyMs,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func queryInt(q interface{ Get(string) string }, key string, defaultVal int) int {
	v := q.Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
