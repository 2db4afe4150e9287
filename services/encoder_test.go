package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsmith/utils"
)

func TestEncoder_Encode(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	enc := NewEncoder(tool, testProfile())
	out := filepath.Join(dir, "nested", "final.mp4")

	require.NoError(t, enc.Encode(context.Background(), "video.mp4", "audio.m4a", 6, false, out))

	assert.True(t, utils.FileExists(out))
	assert.False(t, utils.FileExists(out+".part"))

	args := tool.runs[0]
	assert.Contains(t, args, "1:a:0")
	assert.Equal(t, "+faststart", argAfter(args, "-movflags"))
	assert.Equal(t, "libx264", argAfter(args, "-c:v"))
	assert.Equal(t, "aac", argAfter(args, "-c:a"))
	assert.Equal(t, "30", argAfter(args, "-r"))
	assert.Equal(t, "6.000", argAfter(args, "-t"))
}

func TestEncoder_SameSource(t *testing.T) {
	tool := newFakeTool()
	enc := NewEncoder(tool, testProfile())

	require.NoError(t, enc.Encode(context.Background(), "timeline.mp4", "timeline.mp4", 3, true, filepath.Join(t.TempDir(), "out.mp4")))
	assert.Contains(t, tool.runs[0], "0:a:0")
	assert.NotContains(t, tool.runs[0], "1:a:0")
}

func TestEncoder_CopyVideo(t *testing.T) {
	tool := newFakeTool()
	enc := NewEncoder(tool, testProfile())

	require.NoError(t, enc.Encode(context.Background(), "timeline.mp4", "mixed.m4a", 5, true, filepath.Join(t.TempDir(), "out.mp4")))

	args := tool.runs[0]
	assert.Equal(t, "copy", argAfter(args, "-c:v"))
	assert.Equal(t, "aac", argAfter(args, "-c:a"))
	assert.NotContains(t, args, "-preset")
	assert.NotContains(t, args, "-pix_fmt")
	assert.Equal(t, "+faststart", argAfter(args, "-movflags"))
}

func TestEncoder_FailureLeavesNoFile(t *testing.T) {
	tool := newFakeTool()
	tool.failRun = func([]string) error { return errors.New("encoder crashed") }
	enc := NewEncoder(tool, testProfile())
	out := filepath.Join(t.TempDir(), "out.mp4")

	assert.Error(t, enc.Encode(context.Background(), "v.mp4", "a.m4a", 3, false, out))
	assert.False(t, utils.FileExists(out))
	assert.False(t, utils.FileExists(out+".part"))
}

func TestWatermarkCompositor_Apply(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	logo := writeMedia(t, dir, "logo.png")
	tool.dimensions[logo] = [2]int{400, 200}
	wc := NewWatermarkCompositor(tool, testProfile())

	require.NoError(t, wc.Apply(context.Background(), "timeline.mp4", 8, logo, filepath.Join(dir, "marked.mp4")))

	args := tool.runs[0]
	filter := argAfter(args, "-filter_complex")
	assert.Contains(t, filter, "scale=-2:100")
	assert.Contains(t, filter, "overlay=x=main_w-overlay_w-20:y=20")
	assert.Equal(t, "1", argAfter(args, "-loop"))
	assert.Equal(t, "8.000", argAfter(args, "-t"))
}

func TestWatermarkCompositor_Errors(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	garbage := writeMedia(t, dir, "logo.png")
	wc := NewWatermarkCompositor(tool, testProfile())

	assert.Error(t, wc.Apply(context.Background(), "t.mp4", 8, filepath.Join(dir, "none.png"), "out.mp4"))
	assert.Error(t, wc.Apply(context.Background(), "t.mp4", 8, garbage, "out.mp4"))
	assert.Empty(t, tool.runs)
}
