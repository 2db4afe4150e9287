package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownVisualKind is returned for visuals that are neither video nor image
var ErrUnknownVisualKind = errors.New("unknown visual kind")

// VisualKind tags a scene visual as a moving clip or a still image
type VisualKind string

const (
	VisualVideo VisualKind = "video"
	VisualImage VisualKind = "image"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".bmp": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".webm": true, ".mkv": true, ".avi": true,
}

// Visual is the background asset of a scene. The kind is decided when the
// asset is fetched and travels with it.
type Visual struct {
	Kind VisualKind `json:"kind" yaml:"kind"`
	Path string     `json:"path" yaml:"path"`
}

// VideoVisual returns a video-tagged visual
func VideoVisual(path string) Visual { return Visual{Kind: VisualVideo, Path: path} }

// ImageVisual returns an image-tagged visual
func ImageVisual(path string) Visual { return Visual{Kind: VisualImage, Path: path} }

// IsImage reports whether the visual is a still image
func (v Visual) IsImage() bool { return v.Kind == VisualImage }

// VisualKindFromPath classifies a file by extension. Only used for
// hand-written manifests that leave the kind out.
func VisualKindFromPath(path string) (VisualKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return VisualImage, nil
	case videoExtensions[ext]:
		return VisualVideo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVisualKind, path)
}

// Resolve fills a missing kind from the file extension and validates it.
func (v Visual) Resolve() (Visual, error) {
	switch v.Kind {
	case VisualVideo, VisualImage:
		return v, nil
	case "":
		kind, err := VisualKindFromPath(v.Path)
		if err != nil {
			return v, err
		}
		return Visual{Kind: kind, Path: v.Path}, nil
	}
	return v, fmt.Errorf("%w: %q", ErrUnknownVisualKind, v.Kind)
}

// Word is a word-level timestamp in seconds relative to scene start
type Word struct {
	Text  string  `json:"word" yaml:"word"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Duration returns how long the word is on screen
func (w Word) Duration() float64 { return w.End - w.Start }

// Scene is one narrated segment: a visual, its narration and captions
type Scene struct {
	Visual   Visual `json:"visual" yaml:"visual"`
	Audio    string `json:"audio" yaml:"audio"`
	Captions []Word `json:"captions" yaml:"captions"`
}

// ScriptScene is a scene before any media exists for it
type ScriptScene struct {
	Text          string `json:"text" binding:"required"`
	VisualKeyword string `json:"visual_keyword"`
}
