package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"shortsmith/config"
	"shortsmith/utils"
)

// Timeline is the back-to-back concatenation of scene clips
type Timeline struct {
	Path     string
	Duration float64
	Clips    []SceneClip
	Offsets  []float64 // timeline start of each clip
}

// TimelineConcatenator joins scene clips with hard cuts
type TimelineConcatenator struct {
	tool    MediaTool
	profile config.RenderProfile
}

// NewTimelineConcatenator creates a new concatenator
func NewTimelineConcatenator(tool MediaTool, profile config.RenderProfile) *TimelineConcatenator {
	return &TimelineConcatenator{tool: tool, profile: profile}
}

// NewTimeline lays clips end to end without touching any file
func NewTimeline(path string, clips []SceneClip) *Timeline {
	offsets := make([]float64, len(clips))
	cursor := 0.0
	for i, clip := range clips {
		offsets[i] = cursor
		cursor += clip.Duration
	}
	return &Timeline{
		Path:     path,
		Duration: lo.SumBy(clips, func(c SceneClip) float64 { return c.Duration }),
		Clips:    clips,
		Offsets:  offsets,
	}
}

// Concat joins clips in order into outputPath. A single clip is used as is.
func (tc *TimelineConcatenator) Concat(ctx context.Context, clips []SceneClip, outputPath string) (*Timeline, error) {
	if len(clips) == 0 {
		return nil, errors.New("no input files provided")
	}

	if len(clips) == 1 {
		return NewTimeline(clips[0].Path, clips), nil
	}

	if err := tc.tool.Run(ctx, tc.buildArgs(clips, outputPath)); err != nil {
		utils.RemoveIfExists(outputPath)
		return nil, fmt.Errorf("failed to concatenate scenes: %w", err)
	}

	return NewTimeline(outputPath, clips), nil
}

// buildArgs uses the concat filter so both tracks stay in lockstep
func (tc *TimelineConcatenator) buildArgs(clips []SceneClip, outputPath string) []string {
	args := []string{"-y"}
	for _, clip := range clips {
		args = append(args, "-i", clip.Path)
	}

	var pads strings.Builder
	for i := range clips {
		fmt.Fprintf(&pads, "[%d:v][%d:a]", i, i)
	}
	filter := fmt.Sprintf("%sconcat=n=%d:v=1:a=1[vout][aout]", pads.String(), len(clips))

	args = append(args,
		"-filter_complex", filter,
		"-map", "[vout]",
		"-map", "[aout]",
	)
	args = append(args, videoEncodeArgs(tc.profile)...)
	return append(args, outputPath)
}
