package api

import (
	"net/http"

	"github.com/torchdb/toolgate/internal/dispatch"
)

// handleCallTool runs one tool invocation. The response is always HTTP 200
// with a structured result; validation, permission, and database failures
// are reported in the result body, not as transport errors.
func (d *Dependencies) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var req CallToolReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Tool == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "tool is required"})
		return
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	result := d.Dispatcher.Dispatch(r.Context(), dispatch.ToolCall{
		Tool:      req.Tool,
		Arguments: req.Arguments,
	})
	writeJSON(w, http.StatusOK, result)
}

func (d *Dependencies) handleListTools(w http.ResponseWriter, _ *http.Request) {
	defs := d.Dispatcher.Tools()
	resp := ToolListResp{Tools: make([]ToolInfoResp, 0, len(defs))}
	for _, def := range defs {
		resp.Tools = append(resp.Tools, ToolInfoResp{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
