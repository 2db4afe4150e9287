package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"shortsmith/models"
)

var errOutsideMediaRoot = errors.New("path is outside the media root")

// confinePath resolves p against root. Relative paths are taken from root;
// anything that ends up outside root, directly or through a symlink, is
// rejected.
func confinePath(root, p string) (string, error) {
	if p == "" {
		return "", nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)
	if !within(absRoot, target) {
		return "", fmt.Errorf("%w: %s", errOutsideMediaRoot, p)
	}

	// Symlinks are checked against the resolved root so a link that leaves
	// it is caught; missing files are left for the renderer to report
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		realRoot, err := filepath.EvalSymlinks(absRoot)
		if err != nil {
			realRoot = absRoot
		}
		if !within(realRoot, resolved) {
			return "", fmt.Errorf("%w: %s", errOutsideMediaRoot, p)
		}
	}
	return target, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// isFontPath tells a font file reference from a fontconfig family name
func isFontPath(font string) bool {
	if strings.ContainsAny(font, `/\`) {
		return true
	}
	switch strings.ToLower(filepath.Ext(font)) {
	case ".ttf", ".otf", ".ttc":
		return true
	}
	return false
}

// confineOptions rewrites the file references of opts to paths under the
// media root. The configured default font is always allowed.
func (h *VideoHandler) confineOptions(opts *models.RenderOptions) error {
	var err error
	if opts.BackgroundMusic, err = confinePath(h.cfg.MediaRoot, opts.BackgroundMusic); err != nil {
		return err
	}
	if opts.Watermark, err = confinePath(h.cfg.MediaRoot, opts.Watermark); err != nil {
		return err
	}
	if opts.Font != "" && opts.Font != h.cfg.FontPath && isFontPath(opts.Font) {
		if opts.Font, err = confinePath(h.cfg.MediaRoot, opts.Font); err != nil {
			return err
		}
	}
	return nil
}

// confineScenes rewrites every visual and narration path to a path under
// the media root
func (h *VideoHandler) confineScenes(scenes []models.Scene) error {
	for i := range scenes {
		visual, err := confinePath(h.cfg.MediaRoot, scenes[i].Visual.Path)
		if err != nil {
			return fmt.Errorf("scene %d visual: %w", i+1, err)
		}
		audio, err := confinePath(h.cfg.MediaRoot, scenes[i].Audio)
		if err != nil {
			return fmt.Errorf("scene %d audio: %w", i+1, err)
		}
		scenes[i].Visual.Path = visual
		scenes[i].Audio = audio
	}
	return nil
}
