package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"shortsmith/models"
)

// VisualFetcher finds and downloads a background visual for a scene
type VisualFetcher interface {
	FetchVisual(ctx context.Context, keyword, orientation, destDir string, index int) (models.Visual, error)
}

// Narrator synthesizes narration audio for a scene
type Narrator interface {
	Synthesize(ctx context.Context, text, voice, destPath string) error
}

// WordTranscriber produces word-level timestamps for narration audio
type WordTranscriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.Word, error)
}

// ProduceRequest is the scripted input of a production run
type ProduceRequest struct {
	Script      []models.ScriptScene
	Voice       string
	Orientation string
	VisualsDir  string
	AudioDir    string
	Progress    func(done, total int)
}

// SceneProducer turns scripted scenes into renderable scenes
type SceneProducer struct {
	fetcher     VisualFetcher
	narrator    Narrator
	transcriber WordTranscriber // optional
	tool        MediaTool
	text        *TextProcessor
}

// NewSceneProducer creates a producer. transcriber may be nil, in which case
// caption timings are estimated from the narration text.
func NewSceneProducer(fetcher VisualFetcher, narrator Narrator, transcriber WordTranscriber, tool MediaTool, text *TextProcessor) *SceneProducer {
	return &SceneProducer{
		fetcher:     fetcher,
		narrator:    narrator,
		transcriber: transcriber,
		tool:        tool,
		text:        text,
	}
}

// Produce runs fetch visual, synthesize audio and transcribe for each scene,
// one scene at a time. Scenes that cannot be produced are left out.
func (sp *SceneProducer) Produce(ctx context.Context, req ProduceRequest) ([]models.Scene, error) {
	scenes := make([]models.Scene, 0, len(req.Script))

	for i, item := range req.Script {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if req.Progress != nil {
			req.Progress(i, len(req.Script))
		}

		scene, err := sp.produceOne(ctx, i, item, req)
		if err != nil {
			log.Printf("[produce] scene %d/%d skipped: %v", i+1, len(req.Script), err)
			continue
		}
		scenes = append(scenes, *scene)
	}

	return scenes, nil
}

func (sp *SceneProducer) produceOne(ctx context.Context, index int, item models.ScriptScene, req ProduceRequest) (*models.Scene, error) {
	keyword := item.VisualKeyword
	if keyword == "" {
		keyword = item.Text
	}

	visual, err := sp.fetcher.FetchVisual(ctx, keyword, req.Orientation, req.VisualsDir, index)
	if err != nil {
		return nil, fmt.Errorf("visual fetch failed: %w", err)
	}

	audioPath := filepath.Join(req.AudioDir, fmt.Sprintf("scene_%03d.mp3", index))
	if err := sp.narrator.Synthesize(ctx, item.Text, req.Voice, audioPath); err != nil {
		return nil, fmt.Errorf("narration failed: %w", err)
	}

	return &models.Scene{
		Visual:   visual,
		Audio:    audioPath,
		Captions: sp.captionWords(ctx, index, item.Text, audioPath),
	}, nil
}

// captionWords transcribes the narration, estimating timings from the
// script text when transcription is unavailable or comes back empty
func (sp *SceneProducer) captionWords(ctx context.Context, index int, text, audioPath string) []models.Word {
	if sp.transcriber != nil {
		words, err := sp.transcriber.Transcribe(ctx, audioPath)
		if err == nil && len(words) > 0 {
			return words
		}
		if err != nil {
			log.Printf("[produce] scene %d: transcription failed, estimating captions: %v", index+1, err)
		}
	}

	duration, err := sp.tool.Duration(ctx, audioPath)
	if err != nil {
		log.Printf("[produce] scene %d: no captions, audio duration unknown: %v", index+1, err)
		return []models.Word{}
	}
	return sp.text.EstimateWordTimings(text, duration)
}
