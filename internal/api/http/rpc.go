package api

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/canvas-mcp/internal/config"
	"github.com/mind-engage/canvas-mcp/internal/tools"
)

// JSON-RPC 2.0 endpoint for assistant clients: tools/list enumerates the
// surface, tools/call invokes one tool. Tool failures are normal results
// ("Error: ..." text); RPC errors are reserved for protocol problems.

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

func rpcHandler(cfg config.Config, reg *tools.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeRPC(w, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}})
			return
		}
		if req.JSONRPC != "2.0" || req.Method == "" {
			writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}})
			return
		}

		switch req.Method {
		case "tools/list":
			all := reg.List()
			out := make([]toolInfo, 0, len(all))
			for _, t := range all {
				out = append(out, toolInfo{Name: t.Name, Description: t.Description, AdminOnly: t.AdminOnly})
			}
			writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": out}})

		case "tools/call":
			var params struct {
				Name      string     `json:"name"`
				Arguments tools.Args `json:"arguments"`
			}
			if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
				writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeInvalidParams, Message: "params must carry a tool name"}})
				return
			}
			if msg, ok := adminGate(cfg, reg, params.Name, r); !ok {
				writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: callResult("Error: " + msg)})
				return
			}
			writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: callResult(reg.Call(r.Context(), params.Name, params.Arguments))})

		default:
			writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}})
		}
	}
}

// callResult wraps tool output in the content-block shape assistant
// protocols expect.
func callResult(text string) map[string]any {
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	}
}

func writeRPC(w http.ResponseWriter, res rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}
