package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"shortsmith/models"
	"shortsmith/utils"
)

// MediaTool is the part of ffmpeg/ffprobe the pipeline depends on
type MediaTool interface {
	Run(ctx context.Context, args []string) error
	Duration(ctx context.Context, path string) (float64, error)
	Dimensions(ctx context.Context, path string) (int, int, error)
}

// NormalizedMedia is a scene visual coerced to the duration of its narration
type NormalizedMedia struct {
	Visual   models.Visual
	Audio    string
	Duration float64 // narration length, the length of the finished scene
	Width    int     // natural visual size
	Height   int
	Loops    int // times a video plays to cover Duration; 1 for images
}

// VisualInputArgs returns the ffmpeg input options that present the visual
// as exactly Duration seconds: a held still, a looped clip, or a trimmed clip.
func (n *NormalizedMedia) VisualInputArgs(fps int) []string {
	duration := utils.FormatSeconds(n.Duration)
	if n.Visual.IsImage() {
		return []string{"-loop", "1", "-framerate", strconv.Itoa(fps), "-t", duration, "-i", n.Visual.Path}
	}
	if n.Loops > 1 {
		return []string{"-stream_loop", "-1", "-t", duration, "-i", n.Visual.Path}
	}
	return []string{"-t", duration, "-i", n.Visual.Path}
}

// MediaNormalizer loads a scene's sources and matches visual length to audio length
type MediaNormalizer struct {
	tool MediaTool
}

// NewMediaNormalizer creates a new normalizer
func NewMediaNormalizer(tool MediaTool) *MediaNormalizer {
	return &MediaNormalizer{tool: tool}
}

// Normalize validates and probes a scene's sources. Any error means the
// scene cannot be rendered.
func (mn *MediaNormalizer) Normalize(ctx context.Context, scene models.Scene) (*NormalizedMedia, error) {
	visual, err := scene.Visual.Resolve()
	if err != nil {
		return nil, err
	}
	if err := utils.RequireFile(visual.Path); err != nil {
		return nil, fmt.Errorf("visual unavailable: %w", err)
	}
	if err := utils.RequireFile(scene.Audio); err != nil {
		return nil, fmt.Errorf("audio unavailable: %w", err)
	}

	duration, err := mn.tool.Duration(ctx, scene.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio duration: %w", err)
	}

	width, height, err := mn.tool.Dimensions(ctx, visual.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read visual dimensions: %w", err)
	}

	loops := 1
	if !visual.IsImage() {
		clipDuration, err := mn.tool.Duration(ctx, visual.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read video duration: %w", err)
		}
		loops = LoopCount(clipDuration, duration)
	}

	return &NormalizedMedia{
		Visual:   visual,
		Audio:    scene.Audio,
		Duration: duration,
		Width:    width,
		Height:   height,
		Loops:    loops,
	}, nil
}

// LoopCount returns how many back-to-back plays of a source of length
// source are needed to reach target seconds.
func LoopCount(source, target float64) int {
	if source <= 0 || target <= source {
		return 1
	}
	return int(math.Ceil(target / source))
}
