package utils

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg runs the ffmpeg and ffprobe binaries found at the configured paths
type FFmpeg struct {
	Bin      string
	ProbeBin string
}

// NewFFmpeg creates a runner, defaulting to binaries on PATH
func NewFFmpeg(bin, probeBin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	if probeBin == "" {
		probeBin = "ffprobe"
	}
	return &FFmpeg{Bin: bin, ProbeBin: probeBin}
}

// Run executes an ffmpeg command
func (f *FFmpeg) Run(ctx context.Context, args []string) error {
	full := append([]string{"-hide_banner", "-nostdin", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, f.Bin, full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg error: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	return nil
}

// Duration returns the container duration of a media file in seconds
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	out, err := f.probe(ctx,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	return ParseDuration(out)
}

// Dimensions returns width and height of the first video stream. Still
// images are reported as a single-frame video stream by ffprobe.
func (f *FFmpeg) Dimensions(ctx context.Context, path string) (int, int, error) {
	out, err := f.probe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	if err != nil {
		return 0, 0, err
	}
	return ParseDimensions(out)
}

func (f *FFmpeg) probe(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, f.ProbeBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ffprobe error: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(output), nil
}

// ParseDuration parses ffprobe's bare duration output
func ParseDuration(out string) (float64, error) {
	durationStr := strings.TrimSpace(out)
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", durationStr, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("non-positive duration %q", durationStr)
	}
	return duration, nil
}

// ParseDimensions parses ffprobe "WxH" output
func ParseDimensions(out string) (int, int, error) {
	line := strings.TrimSpace(out)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	parts := strings.Split(strings.TrimSuffix(line, "x"), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected dimensions %q", line)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse height %q: %w", parts[1], err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid dimensions %dx%d", w, h)
	}
	return w, h, nil
}
