package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RenderOptions are fixed for a whole render
type RenderOptions struct {
	Aspect           Aspect `json:"aspect" yaml:"aspect"`
	UseZoomEffect    bool   `json:"use_zoom_effect" yaml:"use_zoom_effect"`
	CaptionTextColor string `json:"caption_text_color" yaml:"caption_text_color"`
	BackgroundMusic  string `json:"background_music,omitempty" yaml:"background_music,omitempty"`
	Watermark        string `json:"watermark,omitempty" yaml:"watermark,omitempty"`
	Font             string `json:"font,omitempty" yaml:"font,omitempty"`
}

// WithDefaults fills unset fields and validates the aspect preset.
func (o RenderOptions) WithDefaults(defaultAspect Aspect, defaultFont string) (RenderOptions, error) {
	aspect := o.Aspect
	if aspect == "" {
		aspect = defaultAspect
	}
	parsed, err := ParseAspect(string(aspect))
	if err != nil {
		return o, err
	}
	o.Aspect = parsed
	if o.CaptionTextColor == "" {
		o.CaptionTextColor = "white"
	}
	if o.Font == "" {
		o.Font = defaultFont
	}
	return o, nil
}

// Manifest describes an offline render
type Manifest struct {
	Options RenderOptions `yaml:"options"`
	Scenes  []Scene       `yaml:"scenes"`
}

// LoadManifest reads a YAML (or JSON) manifest. Visual kinds left out of
// the manifest are resolved per scene at render time.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}
