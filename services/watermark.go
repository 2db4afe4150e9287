package services

import (
	"context"
	"fmt"

	"shortsmith/config"
	"shortsmith/utils"
)

// WatermarkCompositor stamps a logo in the top-right corner for the whole timeline
type WatermarkCompositor struct {
	tool    MediaTool
	profile config.RenderProfile
}

// NewWatermarkCompositor creates a new watermark compositor
func NewWatermarkCompositor(tool MediaTool, profile config.RenderProfile) *WatermarkCompositor {
	return &WatermarkCompositor{tool: tool, profile: profile}
}

// Apply overlays watermarkPath onto videoPath and writes outputPath. Audio is copied.
func (wc *WatermarkCompositor) Apply(ctx context.Context, videoPath string, duration float64, watermarkPath, outputPath string) error {
	if err := utils.RequireFile(watermarkPath); err != nil {
		return fmt.Errorf("watermark unavailable: %w", err)
	}
	// Probing rejects files that are not decodable images
	if _, _, err := wc.tool.Dimensions(ctx, watermarkPath); err != nil {
		return fmt.Errorf("failed to read watermark: %w", err)
	}

	if err := wc.tool.Run(ctx, wc.buildArgs(videoPath, duration, watermarkPath, outputPath)); err != nil {
		utils.RemoveIfExists(outputPath)
		return fmt.Errorf("failed to apply watermark: %w", err)
	}

	return nil
}

// buildArgs scales the logo to a fixed height keeping its aspect ratio and
// pins it at a fixed inset from the top-right corner
func (wc *WatermarkCompositor) buildArgs(videoPath string, duration float64, watermarkPath, outputPath string) []string {
	margin := wc.profile.WatermarkMargin
	filter := fmt.Sprintf(
		"[1:v]scale=-2:%d,format=rgba[wm];[0:v][wm]overlay=x=main_w-overlay_w-%d:y=%d:eof_action=repeat:format=auto,format=yuv420p[vout]",
		wc.profile.WatermarkHeight, margin, margin)

	args := []string{
		"-y",
		"-i", videoPath,
		"-loop", "1", "-i", watermarkPath,
		"-filter_complex", filter,
		"-map", "[vout]",
		"-map", "0:a?",
		"-t", utils.FormatSeconds(duration),
	}
	args = append(args, videoEncodeArgs(wc.profile)...)
	return append(args, outputPath)
}
