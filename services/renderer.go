package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"shortsmith/config"
	"shortsmith/models"
	"shortsmith/utils"
)

// ErrNoValidScenes is returned when every scene failed to load
var ErrNoValidScenes = errors.New("no valid scenes")

// Optional features that degrade gracefully
const (
	FeatureMusic     = "background_music"
	FeatureWatermark = "watermark"
	FeatureSubtitles = "subtitles"
)

// RenderRequest is one render run
type RenderRequest struct {
	Scenes     []models.Scene
	Options    models.RenderOptions
	OutputPath string
	// WorkDir holds intermediate files. When empty a temporary directory
	// is created and removed after the run.
	WorkDir  string
	Progress func(step string, progress int)
}

// SceneFailure records a scene that was skipped
type SceneFailure struct {
	Index int
	Err   error
}

// FeatureFailure records an optional feature that was dropped
type FeatureFailure struct {
	Feature string
	Err     error
}

// RenderReport lists every recoverable failure of a run
type RenderReport struct {
	SkippedScenes   []SceneFailure
	DroppedFeatures []FeatureFailure
}

// RenderResult describes a finished render
type RenderResult struct {
	OutputPath   string
	SubtitlePath string
	Duration     float64
	Scenes       int
	Report       RenderReport
}

// Renderer runs the assembly pipeline: scenes one at a time, then
// concatenation, music, watermark and encoding
type Renderer struct {
	assembler     *SceneAssembler
	concatenator  *TimelineConcatenator
	mixer         *AudioMixer
	watermarker   *WatermarkCompositor
	encoder       *Encoder
	defaultAspect models.Aspect
	defaultFont   string
}

// NewRenderer wires the pipeline stages around one media tool
func NewRenderer(tool MediaTool, profile config.RenderProfile, defaultAspect models.Aspect, defaultFont string) *Renderer {
	return &Renderer{
		assembler:     NewSceneAssembler(tool, profile),
		concatenator:  NewTimelineConcatenator(tool, profile),
		mixer:         NewAudioMixer(tool, profile),
		watermarker:   NewWatermarkCompositor(tool, profile),
		encoder:       NewEncoder(tool, profile),
		defaultAspect: defaultAspect,
		defaultFont:   defaultFont,
	}
}

// Render produces req.OutputPath. Scenes that fail to load are skipped and
// failed optional features are dropped; the error is only non-nil when no
// output was written.
func (r *Renderer) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	if req.OutputPath == "" {
		return nil, errors.New("output path is required")
	}
	progress := req.Progress
	if progress == nil {
		progress = func(string, int) {}
	}

	opts, err := req.Options.WithDefaults(r.defaultAspect, r.defaultFont)
	if err != nil {
		return nil, err
	}

	workDir := req.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "shortsmith-render-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create work dir: %w", err)
		}
		defer os.RemoveAll(workDir)
	}
	scenesDir := filepath.Join(workDir, utils.ScenesDir)
	if err := os.MkdirAll(scenesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scenes dir: %w", err)
	}

	result := &RenderResult{}
	report := &result.Report

	// 1. Scenes, strictly in order
	clips := make([]SceneClip, 0, len(req.Scenes))
	for i, scene := range req.Scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(fmt.Sprintf("Rendering scene %d/%d", i+1, len(req.Scenes)), scaleProgress(i, len(req.Scenes), 0, 70))

		clip, err := r.assembler.Assemble(ctx, i, scene, opts, scenesDir)
		if err != nil {
			log.Printf("[render] scene %d/%d skipped: %v", i+1, len(req.Scenes), err)
			report.SkippedScenes = append(report.SkippedScenes, SceneFailure{Index: i, Err: err})
			continue
		}
		clips = append(clips, *clip)
	}

	if len(clips) == 0 {
		return nil, ErrNoValidScenes
	}

	// 2. Timeline
	progress("Concatenating scenes", 75)
	timeline, err := r.concatenator.Concat(ctx, clips, filepath.Join(workDir, "timeline.mp4"))
	if err != nil {
		return nil, err
	}
	log.Printf("[render] timeline: %d scene(s), %.2fs", len(timeline.Clips), timeline.Duration)

	// 3. Music
	audioPath := timeline.Path
	if opts.BackgroundMusic != "" {
		progress("Mixing background music", 80)
		mixedPath := filepath.Join(workDir, "mixed_audio.m4a")
		if err := r.mixer.Mix(ctx, timeline, opts.BackgroundMusic, mixedPath); err != nil {
			log.Printf("[render] %s dropped: %v", FeatureMusic, err)
			report.DroppedFeatures = append(report.DroppedFeatures, FeatureFailure{Feature: FeatureMusic, Err: err})
		} else {
			audioPath = mixedPath
		}
	}

	// 4. Watermark
	videoPath := timeline.Path
	if opts.Watermark != "" {
		progress("Applying watermark", 85)
		markedPath := filepath.Join(workDir, "watermarked.mp4")
		if err := r.watermarker.Apply(ctx, timeline.Path, timeline.Duration, opts.Watermark, markedPath); err != nil {
			log.Printf("[render] %s dropped: %v", FeatureWatermark, err)
			report.DroppedFeatures = append(report.DroppedFeatures, FeatureFailure{Feature: FeatureWatermark, Err: err})
		} else {
			videoPath = markedPath
		}
	}

	// 5. Encode
	progress("Encoding final video", 90)
	// Every earlier pass encodes video with the render profile
	if err := r.encoder.Encode(ctx, videoPath, audioPath, timeline.Duration, true, req.OutputPath); err != nil {
		return nil, err
	}

	// 6. Caption sidecar
	subtitlePath := strings.TrimSuffix(req.OutputPath, filepath.Ext(req.OutputPath)) + ".srt"
	if err := WriteSRT(timeline, subtitlePath); err != nil {
		log.Printf("[render] %s dropped: %v", FeatureSubtitles, err)
		report.DroppedFeatures = append(report.DroppedFeatures, FeatureFailure{Feature: FeatureSubtitles, Err: err})
	} else {
		result.SubtitlePath = subtitlePath
	}

	progress("Complete", 100)
	result.OutputPath = req.OutputPath
	result.Duration = timeline.Duration
	result.Scenes = len(clips)
	return result, nil
}

// scaleProgress maps step i of n onto the [from, to] percentage range
func scaleProgress(i, n, from, to int) int {
	if n <= 0 {
		return from
	}
	return from + (to-from)*i/n
}
