package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/pngopt-mcp/internal/bridge"
	"github.com/ironsheep/pngopt-mcp/internal/engine"
	"github.com/ironsheep/pngopt-mcp/internal/options"
	"github.com/ironsheep/pngopt-mcp/internal/pngerr"
	"github.com/ironsheep/pngopt-mcp/internal/pngstream"
	"github.com/ironsheep/pngopt-mcp/internal/resolver"
)

// maxWait caps wait_ms on png_optimize_result.
const maxWait = 5 * time.Minute

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "png_optimize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramsError marks failures caused by malformed tool arguments.
type paramsError struct{ err error }

func (e *paramsError) Error() string { return e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

func invalidParams(err error) error { return &paramsError{err: err} }

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments and option validation failures return -32602. Every
// other failure, engine failures included, returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.toolErrorResponse(req.ID, params.Name, err)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "png_optimize":
		return s.handleOptimize(args)
	case "png_optimize_async":
		return s.handleOptimizeAsync(args)
	case "png_optimize_result":
		return s.handleOptimizeResult(args)
	case "png_inspect":
		return s.handleInspect(args)
	case "png_resolve_options":
		return s.handleResolveOptions(args)
	default:
		return nil, invalidParams(fmt.Errorf("unknown tool: %s", name))
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// errorDetail is the data payload for option and engine errors.
type errorDetail struct {
	Kind    pngerr.Kind `json:"kind"`
	Code    string      `json:"code"`
	Value   string      `json:"value,omitempty"`
	Message string      `json:"message"`
}

// toolErrorResponse maps a tool error onto a JSON-RPC error code.
func (s *Server) toolErrorResponse(id interface{}, tool string, err error) *MCPResponse {
	var pe *paramsError
	if errors.As(err, &pe) {
		return s.errorResponse(id, -32602, "Invalid params", err.Error())
	}

	var oe *pngerr.Error
	if errors.As(err, &oe) {
		detail := errorDetail{Kind: oe.Kind, Code: oe.Code(), Value: oe.Value, Message: oe.Message}
		if oe.IsValidation() {
			s.logger.Warn("invalid options", "tool", tool, "kind", oe.Kind, "value", oe.Value)
			return s.errorResponse(id, -32602, "Invalid options", detail)
		}
		s.logger.Error("optimization failed", "tool", tool, "kind", oe.Kind, "err", oe.Message)
		return s.errorResponse(id, -32000, "Tool execution failed", detail)
	}

	s.logger.Error("tool failed", "tool", tool, "err", err)
	return s.errorResponse(id, -32000, "Tool execution failed", err.Error())
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return invalidParams(err)
	}
	return nil
}

// === Optimization Handlers ===

type optimizeArgs struct {
	imageSource
	Options    options.Options `json:"options"`
	OutputPath string          `json:"output_path"`
}

// OptimizeResult describes a finished optimization.
type OptimizeResult struct {
	InputBytes   int      `json:"input_bytes"`
	OutputBytes  int      `json:"output_bytes"`
	SavedBytes   int      `json:"saved_bytes"`
	SavedPercent float64  `json:"saved_percent"`
	OutputPath   string   `json:"output_path,omitempty"`
	ImageBase64  string   `json:"image_base64,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// warnings logs and describes the fields of opts that lost to a later
// conflicting one.
func (s *Server) warnings(opts options.Options) []string {
	var warnings []string
	for _, field := range opts.Request().Overridden {
		s.logger.Warn("conflicting option ignored", "field", field)
		warnings = append(warnings, fmt.Sprintf("%s was overridden by a conflicting option", field))
	}
	return warnings
}

func (s *Server) handleOptimize(args json.RawMessage) (interface{}, error) {
	var a optimizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	data, err := a.load()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.bridge.OptimizeSync(data, a.Options)
	if err != nil {
		return nil, err
	}
	s.logger.Info("optimized", "in", len(data), "out", len(out), "elapsed", time.Since(start))

	return s.finish(len(data), out, a.OutputPath, s.warnings(a.Options))
}

// finish writes or encodes the output and reports sizes.
func (s *Server) finish(inputBytes int, out []byte, outputPath string, warnings []string) (*OptimizeResult, error) {
	res := &OptimizeResult{
		InputBytes:  inputBytes,
		OutputBytes: len(out),
		SavedBytes:  inputBytes - len(out),
		Warnings:    warnings,
	}
	if inputBytes > 0 {
		res.SavedPercent = float64(res.SavedBytes) * 100 / float64(inputBytes)
	}

	if outputPath != "" {
		if err := writeOutput(outputPath, out); err != nil {
			return nil, err
		}
		res.OutputPath = outputPath
	} else {
		res.ImageBase64 = base64.StdEncoding.EncodeToString(out)
	}
	return res, nil
}

// TaskStatus reports the state of a deferred optimization.
type TaskStatus struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Result *OptimizeResult `json:"result,omitempty"`
	Error  *errorDetail    `json:"error,omitempty"`
}

// Task status values.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

func (s *Server) handleOptimizeAsync(args json.RawMessage) (interface{}, error) {
	var a optimizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	data, err := a.load()
	if err != nil {
		return nil, err
	}

	task, err := s.bridge.Optimize(data, a.Options)
	if err != nil {
		return nil, err
	}

	if n := s.tasks.Sweep(taskTTL, time.Now()); n > 0 {
		s.logger.Debug("swept uncollected results", "count", n)
	}
	id := s.tasks.Add(&pendingTask{
		task:       task,
		inputBytes: len(data),
		outputPath: a.OutputPath,
		warnings:   s.warnings(a.Options),
		created:    time.Now(),
	})
	s.logger.Info("scheduled", "task", id, "in", len(data))
	return &TaskStatus{TaskID: id, Status: StatusPending}, nil
}

type optimizeResultArgs struct {
	TaskID string `json:"task_id"`
	WaitMS int    `json:"wait_ms"`
}

func (s *Server) handleOptimizeResult(args json.RawMessage) (interface{}, error) {
	var a optimizeResultArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.TaskID == "" {
		return nil, invalidParams(errors.New("task_id is required"))
	}
	pt, ok := s.tasks.Get(a.TaskID)
	if !ok {
		return nil, invalidParams(fmt.Errorf("unknown task: %s", a.TaskID))
	}

	wait := time.Duration(a.WaitMS) * time.Millisecond
	if wait > maxWait {
		wait = maxWait
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	out, err := pt.task.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		if _, err = pt.task.Result(); errors.Is(err, bridge.ErrPending) {
			return &TaskStatus{TaskID: a.TaskID, Status: StatusPending}, nil
		}
		out, err = pt.task.Result()
	}
	s.tasks.Evict(a.TaskID)

	if err != nil {
		detail := &errorDetail{Kind: pngerr.KindOf(err), Message: err.Error()}
		var oe *pngerr.Error
		if errors.As(err, &oe) {
			detail.Code = oe.Code()
		}
		s.logger.Error("task failed", "task", a.TaskID, "err", err)
		return &TaskStatus{TaskID: a.TaskID, Status: StatusFailed, Error: detail}, nil
	}

	res, err := s.finish(pt.inputBytes, out, pt.outputPath, pt.warnings)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task done", "task", a.TaskID, "in", pt.inputBytes, "out", len(out), "elapsed", time.Since(pt.created))
	return &TaskStatus{TaskID: a.TaskID, Status: StatusDone, Result: res}, nil
}

// === Inspection Handlers ===

func (s *Server) handleInspect(args json.RawMessage) (interface{}, error) {
	var a imageSource
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	data, err := a.load()
	if err != nil {
		return nil, err
	}
	return pngstream.Inspect(data)
}

// ResolvedOptions is the dry-run view of a resolved configuration.
type ResolvedOptions struct {
	Summary            string   `json:"summary"`
	Force              bool     `json:"force"`
	Filters            []string `json:"filters"`
	Interlace          string   `json:"interlace"`
	Chunks             string   `json:"chunks"`
	ChunkNames         []string `json:"chunk_names,omitempty"`
	Deflate            string   `json:"deflate"`
	OptimizeAlpha      bool     `json:"optimize_alpha"`
	BitDepthReduction  bool     `json:"bit_depth_reduction"`
	ColorTypeReduction bool     `json:"color_type_reduction"`
	PaletteReduction   bool     `json:"palette_reduction"`
	GrayscaleReduction bool     `json:"grayscale_reduction"`
	IdatRecoding       bool     `json:"idat_recoding"`
	Scale16            bool     `json:"scale16"`
	FastEvaluation     bool     `json:"fast_evaluation"`
	Warnings           []string `json:"warnings,omitempty"`
}

type resolveOptionsArgs struct {
	Options options.Options `json:"options"`
}

func (s *Server) handleResolveOptions(args json.RawMessage) (interface{}, error) {
	var a resolveOptionsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := resolver.Resolve(a.Options)
	if err != nil {
		return nil, err
	}
	return describeConfig(cfg, s.warnings(a.Options)), nil
}

func describeConfig(cfg *engine.Config, warnings []string) *ResolvedOptions {
	filters := make([]string, len(cfg.Filters))
	for i, f := range cfg.Filters {
		filters[i] = f.String()
	}
	return &ResolvedOptions{
		Summary:            cfg.Summary(),
		Force:              cfg.Force,
		Filters:            filters,
		Interlace:          cfg.Interlace.String(),
		Chunks:             cfg.Chunks.Mode.String(),
		ChunkNames:         cfg.Chunks.Names.Sorted(),
		Deflate:            cfg.Deflate.String(),
		OptimizeAlpha:      cfg.OptimizeAlpha,
		BitDepthReduction:  cfg.BitDepthReduction,
		ColorTypeReduction: cfg.ColorTypeReduction,
		PaletteReduction:   cfg.PaletteReduction,
		GrayscaleReduction: cfg.GrayscaleReduction,
		IdatRecoding:       cfg.IdatRecoding,
		Scale16:            cfg.Scale16,
		FastEvaluation:     cfg.FastEvaluation,
		Warnings:           warnings,
	}
}
