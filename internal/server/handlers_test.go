package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pngopt-mcp/internal/pngerr"
	"github.com/ironsheep/pngopt-mcp/internal/pngstream"
)

// createTestImageFile writes an uncompressed PNG and returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := imaging.New(width, height, c)
	for x := 0; x < width; x++ {
		img.Set(x, x%height, color.NRGBA{0, 0, 0, 255})
	}

	path := filepath.Join(t.TempDir(), "input.png")
	if err := imaging.Save(img, path, imaging.PNGCompressionLevel(png.NoCompression)); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}
	return path
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolResult decodes the JSON text content of a successful tool call.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	text := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v\n%s", err, text)
	}
}

func errorKind(t *testing.T, resp *MCPResponse) pngerr.Kind {
	t.Helper()
	if resp.Error == nil {
		t.Fatal("expected error response")
	}
	detail, ok := resp.Error.Data.(errorDetail)
	if !ok {
		t.Fatalf("error data %T is not errorDetail: %v", resp.Error.Data, resp.Error.Data)
	}
	return detail.Kind
}

func TestHandleOptimize_Path(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 64, 40, color.NRGBA{255, 0, 0, 255})
	info, _ := os.Stat(imgPath)

	resp := callTool(t, s, "png_optimize", map[string]interface{}{
		"path":    imgPath,
		"options": map[string]interface{}{"optimizationLevel": 2},
	})

	var res OptimizeResult
	toolResult(t, resp, &res)

	if res.InputBytes != int(info.Size()) {
		t.Errorf("input_bytes = %d, want %d", res.InputBytes, info.Size())
	}
	if res.OutputBytes >= res.InputBytes || res.SavedBytes != res.InputBytes-res.OutputBytes {
		t.Errorf("sizes: %+v", res)
	}
	out, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("bad base64: %v", err)
	}
	if _, err := pngstream.Inspect(out); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}
}

func TestHandleOptimize_Base64AndOutputPath(t *testing.T) {
	s := newTestServer()
	data, err := os.ReadFile(createTestImageFile(t, 32, 32, color.NRGBA{0, 128, 0, 255}))
	if err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(t.TempDir(), "nested", "out.png")

	resp := callTool(t, s, "png_optimize", map[string]interface{}{
		"image_base64": base64.StdEncoding.EncodeToString(data),
		"output_path":  outPath,
		"options":      map[string]interface{}{"stripAll": true, "interlace": "apply", "force": true},
	})

	var res OptimizeResult
	toolResult(t, resp, &res)

	if res.OutputPath != outPath || res.ImageBase64 != "" {
		t.Errorf("result = %+v", res)
	}
	written, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	info, err := pngstream.Inspect(written)
	if err != nil {
		t.Fatal(err)
	}
	if info.Header.Interlace != 1 {
		t.Error("output should be interlaced")
	}
}

func TestHandleOptimize_Errors(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 8, 8, color.NRGBA{1, 2, 3, 255})

	tests := []struct {
		name     string
		args     map[string]interface{}
		wantCode int
		wantKind pngerr.Kind
	}{
		{
			name:     "forbidden strip",
			args:     map[string]interface{}{"path": imgPath, "options": map[string]interface{}{"stripChunks": []string{"IHDR"}}},
			wantCode: -32602,
			wantKind: pngerr.KindForbiddenChunkStrip,
		},
		{
			name:     "bad chunk name",
			args:     map[string]interface{}{"path": imgPath, "options": map[string]interface{}{"keepChunks": []string{"abc"}}},
			wantCode: -32602,
			wantKind: pngerr.KindInvalidChunkName,
		},
		{
			name:     "forbidden strip behind stripSafe",
			args:     map[string]interface{}{"path": imgPath, "options": map[string]interface{}{"stripChunks": []string{"IDAT"}, "stripSafe": true}},
			wantCode: -32602,
			wantKind: pngerr.KindForbiddenChunkStrip,
		},
		{
			name:     "compression level",
			args:     map[string]interface{}{"path": imgPath, "options": map[string]interface{}{"compressionLevel": 13}},
			wantCode: -32602,
			wantKind: pngerr.KindCompressionLevelOutOfRange,
		},
		{
			name:     "not a png",
			args:     map[string]interface{}{"image_base64": base64.StdEncoding.EncodeToString([]byte("plain text"))},
			wantCode: -32000,
			wantKind: pngerr.KindEngineFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "png_optimize", tt.args)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %d", resp.Error, tt.wantCode)
			}
			if kind := errorKind(t, resp); kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", kind, tt.wantKind)
			}
		})
	}
}

func TestHandleOptimize_InvalidParams(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 8, 8, color.NRGBA{1, 2, 3, 255})

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no source", map[string]interface{}{}},
		{"both sources", map[string]interface{}{"path": imgPath, "image_base64": "AAAA"}},
		{"bad base64", map[string]interface{}{"image_base64": "%%%"}},
		{"bad interlace", map[string]interface{}{"path": imgPath, "options": map[string]interface{}{"interlace": "sideways"}}},
		{"bad filter", map[string]interface{}{"path": imgPath, "options": map[string]interface{}{"filter": []string{"Zigzag"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "png_optimize", tt.args)
			if resp.Error == nil || resp.Error.Code != -32602 {
				t.Errorf("error = %+v, want -32602", resp.Error)
			}
		})
	}
}

func TestHandleOptimize_MissingFile(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "png_optimize", map[string]interface{}{"path": "/nonexistent/image.png"})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("error = %+v, want -32000", resp.Error)
	}
}

func TestHandleOptimizeAsync(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 48, 48, color.NRGBA{10, 20, 30, 255})

	syncResp := callTool(t, s, "png_optimize", map[string]interface{}{"path": imgPath})
	var want OptimizeResult
	toolResult(t, syncResp, &want)

	var scheduled TaskStatus
	toolResult(t, callTool(t, s, "png_optimize_async", map[string]interface{}{"path": imgPath}), &scheduled)
	if scheduled.TaskID == "" || scheduled.Status != StatusPending {
		t.Fatalf("scheduled = %+v", scheduled)
	}

	var got TaskStatus
	toolResult(t, callTool(t, s, "png_optimize_result", map[string]interface{}{
		"task_id": scheduled.TaskID,
		"wait_ms": 30000,
	}), &got)
	if got.Status != StatusDone || got.Result == nil {
		t.Fatalf("status = %+v", got)
	}
	if got.Result.ImageBase64 != want.ImageBase64 {
		t.Error("deferred result differs from blocking result")
	}

	resp := callTool(t, s, "png_optimize_result", map[string]interface{}{"task_id": scheduled.TaskID})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("collected task should be gone, got %+v", resp.Error)
	}
	if s.tasks.Len() != 0 {
		t.Errorf("registry holds %d tasks", s.tasks.Len())
	}
}

func TestHandleOptimizeAsync_ValidationIsImmediate(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 8, 8, color.NRGBA{1, 2, 3, 255})

	resp := callTool(t, s, "png_optimize_async", map[string]interface{}{
		"path":    imgPath,
		"options": map[string]interface{}{"useZopfli": true, "zopfliIterations": 0},
	})
	if kind := errorKind(t, resp); kind != pngerr.KindZopfliIterationsOutOfRange {
		t.Errorf("kind = %s", kind)
	}
	if s.tasks.Len() != 0 {
		t.Error("invalid options must not schedule a task")
	}
}

func TestHandleOptimizeAsync_EngineFailure(t *testing.T) {
	s := newTestServer()

	var scheduled TaskStatus
	toolResult(t, callTool(t, s, "png_optimize_async", map[string]interface{}{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("GIF89a")),
	}), &scheduled)

	var got TaskStatus
	toolResult(t, callTool(t, s, "png_optimize_result", map[string]interface{}{
		"task_id": scheduled.TaskID,
		"wait_ms": 30000,
	}), &got)
	if got.Status != StatusFailed || got.Error == nil {
		t.Fatalf("status = %+v", got)
	}
	if got.Error.Kind != pngerr.KindEngineFailure || got.Error.Code != "GenericFailure" {
		t.Errorf("error = %+v", got.Error)
	}
	if got.Error.Message != "Invalid header detected; Not a PNG file" {
		t.Errorf("message = %q", got.Error.Message)
	}
}

func TestHandleOptimizeResult_UnknownTask(t *testing.T) {
	s := newTestServer()
	for _, args := range []map[string]interface{}{
		{"task_id": "00000000-0000-0000-0000-000000000000"},
		{},
	} {
		resp := callTool(t, s, "png_optimize_result", args)
		if resp.Error == nil || resp.Error.Code != -32602 {
			t.Errorf("args %v: error = %+v", args, resp.Error)
		}
	}
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 30, 20, color.NRGBA{200, 100, 50, 255})

	var info pngstream.Info
	toolResult(t, callTool(t, s, "png_inspect", map[string]interface{}{"path": imgPath}), &info)

	if info.Header.Width != 30 || info.Header.Height != 20 {
		t.Errorf("header = %+v", info.Header)
	}
	if len(info.Chunks) < 3 || info.Chunks[0].Name != "IHDR" {
		t.Errorf("chunks = %+v", info.Chunks)
	}
}

func TestHandleResolveOptions(t *testing.T) {
	s := newTestServer()

	var got ResolvedOptions
	toolResult(t, callTool(t, s, "png_resolve_options", map[string]interface{}{
		"options": map[string]interface{}{
			"optimizationLevel": 1,
			"optimizationMax":   true,
			"keepChunks":        []string{"display"},
			"useZopfli":         true,
			"compressionLevel":  9,
		},
	}), &got)

	if len(got.ChunkNames) != 7 || got.Chunks != "keep" {
		t.Errorf("chunks = %s %v", got.Chunks, got.ChunkNames)
	}
	if got.Deflate != "deflate(level=9)" {
		t.Errorf("deflate = %s", got.Deflate)
	}
	if len(got.Filters) != 10 {
		t.Errorf("max preset should try all filters, got %v", got.Filters)
	}
	if len(got.Warnings) != 2 {
		t.Errorf("warnings = %v", got.Warnings)
	}
}

func TestHandleResolveOptions_OverriddenFieldInvalid(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "png_resolve_options", map[string]interface{}{
		"options": map[string]interface{}{
			"useZopfli":        true,
			"zopfliIterations": 0,
			"compressionLevel": 5,
		},
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("error = %+v, want code -32602", resp.Error)
	}
	if kind := errorKind(t, resp); kind != pngerr.KindZopfliIterationsOutOfRange {
		t.Errorf("kind = %s", kind)
	}
}

func TestHandleResolveOptions_Defaults(t *testing.T) {
	s := newTestServer()

	var got ResolvedOptions
	toolResult(t, callTool(t, s, "png_resolve_options", map[string]interface{}{}), &got)

	if got.Deflate != "deflate(level=11)" || got.Interlace != "none" || got.Chunks != "default" {
		t.Errorf("defaults = %+v", got)
	}
	if !bytes.Contains([]byte(got.Summary), []byte("deflate(level=11)")) {
		t.Errorf("summary = %s", got.Summary)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "image_crop", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1,2]`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("error = %+v", resp.Error)
	}
}
