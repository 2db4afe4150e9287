package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"shortsmith/config"
)

// fakeTool stands in for ffmpeg/ffprobe. Run writes a small file at the
// last argument, probes answer from per-path tables.
type fakeTool struct {
	mu         sync.Mutex
	durations  map[string]float64
	dimensions map[string][2]int
	failRun    func(args []string) error
	runs       [][]string
}

func newFakeTool() *fakeTool {
	return &fakeTool{
		durations:  map[string]float64{},
		dimensions: map[string][2]int{},
	}
}

func (f *fakeTool) Run(_ context.Context, args []string) error {
	f.mu.Lock()
	f.runs = append(f.runs, append([]string(nil), args...))
	fail := f.failRun
	f.mu.Unlock()

	if fail != nil {
		if err := fail(args); err != nil {
			return err
		}
	}
	out := args[len(args)-1]
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("media"), 0644)
}

func (f *fakeTool) Duration(_ context.Context, path string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.durations[path]
	if !ok {
		return 0, errors.New("invalid data found when processing input")
	}
	return d, nil
}

func (f *fakeTool) Dimensions(_ context.Context, path string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dimensions[path]
	if !ok {
		return 0, 0, errors.New("no video stream")
	}
	return d[0], d[1], nil
}

// runsWriting returns the invocations whose output path contains substr
func (f *fakeTool) runsWriting(substr string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched [][]string
	for _, args := range f.runs {
		if strings.Contains(args[len(args)-1], substr) {
			matched = append(matched, args)
		}
	}
	return matched
}

// writeMedia creates a non-empty stand-in media file
func writeMedia(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0644))
	return path
}

// argAfter returns the value following flag, or "" when absent
func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func testProfile() config.RenderProfile {
	return config.DefaultRenderProfile()
}
