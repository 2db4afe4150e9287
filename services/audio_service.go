package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"shortsmith/utils"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io"
	elevenLabsModel   = "eleven_monolingual_v1"
	maxTTSRetries     = 3
)

// AudioService synthesizes scene narration with ElevenLabs
type AudioService struct {
	keys         *utils.KeyPool
	httpClient   *http.Client
	baseURL      string
	defaultVoice string
	retryDelay   time.Duration
	backoff      time.Duration // grows linearly per attempt
}

// NewAudioService creates a new audio service
func NewAudioService(keys *utils.KeyPool, defaultVoice string, retryDelay time.Duration) *AudioService {
	return &AudioService{
		keys: keys,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		baseURL:      elevenLabsBaseURL,
		defaultVoice: defaultVoice,
		retryDelay:   retryDelay,
		backoff:      time.Second,
	}
}

// TTSRequest represents an ElevenLabs text-to-speech request
type TTSRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// VoiceSettings tunes the ElevenLabs voice
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// TTSErrorResponse represents an ElevenLabs error body
type TTSErrorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Synthesize speaks text with voice (or the default voice) and writes an mp3 to destPath
func (as *AudioService) Synthesize(ctx context.Context, text, voice, destPath string) error {
	if voice == "" {
		voice = as.defaultVoice
	}

	var lastErr error
	for attempt := 0; attempt < maxTTSRetries; attempt++ {
		apiKey, err := as.keys.Next()
		if err != nil {
			return fmt.Errorf("no available API keys: %w", err)
		}

		audioData, err := as.callElevenLabs(ctx, text, voice, apiKey)
		if err != nil {
			as.keys.MarkFailed(apiKey, as.retryDelay)
			lastErr = err
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * as.backoff):
			}
			continue
		}

		return saveAudioFile(audioData, destPath)
	}

	return fmt.Errorf("failed after %d retries: %w", maxTTSRetries, lastErr)
}

// callElevenLabs calls the text-to-speech endpoint and returns mp3 bytes
func (as *AudioService) callElevenLabs(ctx context.Context, text, voice, apiKey string) ([]byte, error) {
	reqBody := TTSRequest{
		Text:    text,
		ModelID: elevenLabsModel,
		VoiceSettings: VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", as.baseURL, voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", apiKey)

	resp, err := as.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp TTSErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail.Message != "" {
			return nil, fmt.Errorf("API error: %s (status: %d)", errResp.Detail.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if len(body) == 0 {
		return nil, errors.New("API returned empty audio")
	}

	return body, nil
}

// saveAudioFile saves audio data to file
func saveAudioFile(data []byte, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
