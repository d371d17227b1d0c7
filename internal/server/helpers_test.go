package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/mcp-imagemagick/internal/converter"
	"github.com/stretchr/testify/require"
)

// stubConverter is an in-memory converter.Converter.
type stubConverter struct {
	name      string
	priority  uint8
	available bool
	err       error
	calls     int
}

func (c *stubConverter) Convert(_ context.Context, _, _ string) error {
	c.calls++
	return c.err
}

func (c *stubConverter) Available() bool { return c.available }
func (c *stubConverter) Name() string    { return c.name }
func (c *stubConverter) Priority() uint8 { return c.priority }

func newStubs() (imagemagick, darktable *stubConverter) {
	return &stubConverter{name: converter.ImageMagickName, priority: converter.ImageMagickPriority},
		&stubConverter{name: converter.DarktableName, priority: converter.DarktablePriority}
}

func newTestServer(converters ...converter.Converter) *Server {
	registry := converter.NewRegistry(nil, converters...)
	return New(NewToolHandler(registry, nil))
}

// createDNG writes a placeholder file with a .dng extension.
func createDNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "IMG_0001.DNG")
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0o644))
	return path
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("data"), 0o644)
}

// call sends line through HandleMessage and decodes the wire form.
func call(t *testing.T, s *Server, line string) map[string]any {
	t.Helper()
	resp := s.HandleMessage(context.Background(), []byte(line))
	require.NotNil(t, resp)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// errorCode returns error.code from a decoded response, or 0.
func errorCode(resp map[string]any) int {
	e, ok := resp["error"].(map[string]any)
	if !ok {
		return 0
	}
	return int(e["code"].(float64))
}

func errorData(resp map[string]any) string {
	e, _ := resp["error"].(map[string]any)
	s, _ := e["data"].(string)
	return s
}

// resultText extracts content[0].text from a tools/call result.
func resultText(t *testing.T, resp map[string]any) string {
	t.Helper()
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok, "no result in %v", resp)
	content := result["content"].([]any)
	require.Len(t, content, 1)
	item := content[0].(map[string]any)
	require.Equal(t, "text", item["type"])
	return item["text"].(string)
}
