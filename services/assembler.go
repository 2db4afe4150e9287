package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"shortsmith/config"
	"shortsmith/models"
	"shortsmith/utils"
)

// SceneClip is one rendered scene: composited visual, captions and narration
type SceneClip struct {
	Index    int // position in the original scene list
	Path     string
	Duration float64
	Captions []Caption
}

// SceneAssembler renders a single scene clip per ffmpeg invocation
type SceneAssembler struct {
	tool       MediaTool
	normalizer *MediaNormalizer
	compositor *FrameCompositor
	profile    config.RenderProfile
}

// NewSceneAssembler creates a new scene assembler
func NewSceneAssembler(tool MediaTool, profile config.RenderProfile) *SceneAssembler {
	return &SceneAssembler{
		tool:       tool,
		normalizer: NewMediaNormalizer(tool),
		compositor: NewFrameCompositor(profile.FPS, profile.ZoomRate),
		profile:    profile,
	}
}

// Assemble normalizes, composites and captions one scene into outDir.
// The clip lasts exactly as long as the scene's narration.
func (sa *SceneAssembler) Assemble(ctx context.Context, index int, scene models.Scene, opts models.RenderOptions, outDir string) (*SceneClip, error) {
	media, err := sa.normalizer.Normalize(ctx, scene)
	if err != nil {
		return nil, err
	}

	canvas := opts.Aspect.Canvas()
	geometry := CoverGeometry(media.Width, media.Height, canvas)
	captions := BuildCaptions(scene.Captions)
	if dropped := len(scene.Captions) - len(captions); dropped > 0 {
		log.Printf("[render] scene %d: dropped %d empty or zero-length captions", index+1, dropped)
	}

	style := CaptionStyle{
		Font:        opts.Font,
		Color:       opts.CaptionTextColor,
		FontSize:    sa.profile.CaptionFontSize,
		StrokeWidth: sa.profile.CaptionStroke,
		StrokeColor: sa.profile.CaptionStrokeHex,
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("scene_%03d.mp4", index))
	args := sa.buildArgs(media, geometry, opts.UseZoomEffect, style.Filter(captions), outPath)

	log.Printf("[render] scene %d: %s %dx%d -> %s (scale %.3f, %d loop(s), %.2fs, %d captions)",
		index+1, media.Visual.Kind, media.Width, media.Height, canvas, geometry.Scale, media.Loops, media.Duration, len(captions))
	if opts.UseZoomEffect {
		log.Printf("[render] scene %d: zoom %.3fx -> %.3fx",
			index+1, sa.compositor.ZoomFactor(0), sa.compositor.ZoomFactor(media.Duration))
	}

	if err := sa.tool.Run(ctx, args); err != nil {
		utils.RemoveIfExists(outPath)
		return nil, fmt.Errorf("failed to render scene: %w", err)
	}

	return &SceneClip{
		Index:    index,
		Path:     outPath,
		Duration: media.Duration,
		Captions: captions,
	}, nil
}

// buildArgs stacks visual (bottom) and captions (top) and binds the
// narration. Input 0 is the visual, input 1 the audio.
func (sa *SceneAssembler) buildArgs(media *NormalizedMedia, g Geometry, zoom bool, captionFilter, outPath string) []string {
	videoChain := []string{sa.compositor.Filter(g, zoom)}
	if captionFilter != "" {
		videoChain = append(videoChain, captionFilter)
	}
	videoChain = append(videoChain, "format=yuv420p")

	filter := fmt.Sprintf("[0:v]%s[v];[1:a]aformat=sample_rates=%d:channel_layouts=stereo,apad[a]",
		strings.Join(videoChain, ","), sa.profile.AudioSampleRate)

	args := []string{"-y"}
	args = append(args, media.VisualInputArgs(sa.profile.FPS)...)
	args = append(args, "-i", media.Audio)
	args = append(args,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "[a]",
		"-t", utils.FormatSeconds(media.Duration),
	)
	args = append(args, videoEncodeArgs(sa.profile)...)
	return append(args, outPath)
}

// videoEncodeArgs are shared by every pass that writes video and audio
func videoEncodeArgs(p config.RenderProfile) []string {
	return []string{
		"-r", strconv.Itoa(p.FPS),
		"-c:v", p.VideoCodec,
		"-preset", p.VideoPreset,
		"-pix_fmt", "yuv420p",
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
		"-ar", strconv.Itoa(p.AudioSampleRate),
	}
}
