package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RenderProfile holds the encoder settings and the tunable constants of the
// assembly pipeline. Every field can be overridden from a YAML file.
type RenderProfile struct {
	FPS             int    `yaml:"fps"`
	VideoCodec      string `yaml:"video_codec"`
	VideoPreset     string `yaml:"video_preset"`
	AudioCodec      string `yaml:"audio_codec"`
	AudioBitrate    string `yaml:"audio_bitrate"`
	AudioSampleRate int    `yaml:"audio_sample_rate"`

	// Linear gain applied to background music under the narration
	MusicGain float64 `yaml:"music_gain"`
	// Zoom factor growth per second when the zoom effect is on
	ZoomRate float64 `yaml:"zoom_rate"`

	CaptionFontSize  int    `yaml:"caption_font_size"`
	CaptionStroke    int    `yaml:"caption_stroke_width"`
	CaptionStrokeHex string `yaml:"caption_stroke_color"`

	WatermarkHeight int `yaml:"watermark_height"`
	WatermarkMargin int `yaml:"watermark_margin"`
}

// DefaultRenderProfile returns the built-in render settings
func DefaultRenderProfile() RenderProfile {
	return RenderProfile{
		FPS:              30,
		VideoCodec:       "libx264",
		VideoPreset:      "ultrafast",
		AudioCodec:       "aac",
		AudioBitrate:     "192k",
		AudioSampleRate:  44100,
		MusicGain:        0.12,
		ZoomRate:         0.02,
		CaptionFontSize:  80,
		CaptionStroke:    2,
		CaptionStrokeHex: "black",
		WatermarkHeight:  100,
		WatermarkMargin:  20,
	}
}

// LoadRenderProfile overlays the YAML file at path onto base
func LoadRenderProfile(path string, base RenderProfile) (RenderProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read render profile: %w", err)
	}

	profile := base
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return base, fmt.Errorf("failed to parse render profile %s: %w", path, err)
	}
	return profile, nil
}

// Validate checks the profile values are usable
func (p RenderProfile) Validate() error {
	if p.FPS <= 0 {
		return errors.New("fps must be positive")
	}
	if p.VideoCodec == "" || p.AudioCodec == "" {
		return errors.New("video and audio codecs are required")
	}
	if p.AudioSampleRate <= 0 {
		return errors.New("audio sample rate must be positive")
	}
	if p.MusicGain < 0 || p.MusicGain > 1 {
		return fmt.Errorf("music gain must be within [0,1], got %.3f", p.MusicGain)
	}
	if p.ZoomRate < 0 {
		return errors.New("zoom rate must not be negative")
	}
	if p.CaptionFontSize <= 0 {
		return errors.New("caption font size must be positive")
	}
	if p.WatermarkHeight <= 0 || p.WatermarkMargin < 0 {
		return errors.New("watermark height must be positive and margin non-negative")
	}
	return nil
}
