package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"shortsmith/models"
)

// Transcriber extracts word-level timestamps from narration with an
// OpenAI-compatible Whisper endpoint
type Transcriber struct {
	client *openai.Client
	model  string
}

// NewTranscriber creates a transcriber. baseURL may point at any
// OpenAI-compatible server; empty uses the OpenAI API.
func NewTranscriber(apiKey, baseURL, model string) *Transcriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Transcriber{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Transcribe returns the words spoken in audioPath. Missing or empty files
// yield no words rather than an error.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) ([]models.Word, error) {
	info, err := os.Stat(audioPath)
	if err != nil || info.Size() == 0 {
		return []models.Word{}, nil
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	words := make([]models.Word, 0, len(resp.Words))
	for _, w := range resp.Words {
		words = append(words, models.Word{Text: strings.TrimSpace(w.Word), Start: w.Start, End: w.End})
	}
	return words, nil
}
