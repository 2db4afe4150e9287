package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"shortsmith/config"
	"shortsmith/utils"
)

// Encoder writes the final composite to its destination file
type Encoder struct {
	tool    MediaTool
	profile config.RenderProfile
}

// NewEncoder creates a new encoder
func NewEncoder(tool MediaTool, profile config.RenderProfile) *Encoder {
	return &Encoder{tool: tool, profile: profile}
}

// Encode muxes the video track of videoPath with the audio track of
// audioPath (which may be the same file) into outputPath. With copyVideo
// the video track is passed through untouched; it must already match the
// render profile. The file only appears at outputPath once encoding
// succeeded.
func (e *Encoder) Encode(ctx context.Context, videoPath, audioPath string, duration float64, copyVideo bool, outputPath string) error {
	if videoPath == "" || audioPath == "" {
		return fmt.Errorf("video and audio paths are required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	partPath := outputPath + ".part"
	if err := e.tool.Run(ctx, e.buildArgs(videoPath, audioPath, duration, copyVideo, partPath)); err != nil {
		utils.RemoveIfExists(partPath)
		return fmt.Errorf("failed to encode video: %w", err)
	}

	if err := os.Rename(partPath, outputPath); err != nil {
		utils.RemoveIfExists(partPath)
		return fmt.Errorf("failed to move encoded video into place: %w", err)
	}

	return nil
}

func (e *Encoder) buildArgs(videoPath, audioPath string, duration float64, copyVideo bool, outputPath string) []string {
	args := []string{"-y", "-i", videoPath}
	audioMap := "0:a:0"
	if audioPath != videoPath {
		args = append(args, "-i", audioPath)
		audioMap = "1:a:0"
	}

	args = append(args,
		"-map", "0:v:0",
		"-map", audioMap,
		"-t", utils.FormatSeconds(duration),
	)
	if copyVideo {
		args = append(args,
			"-c:v", "copy",
			"-c:a", e.profile.AudioCodec,
			"-b:a", e.profile.AudioBitrate,
			"-ar", strconv.Itoa(e.profile.AudioSampleRate),
		)
	} else {
		args = append(args, videoEncodeArgs(e.profile)...)
	}
	return append(args,
		"-movflags", "+faststart",
		"-f", "mp4",
		outputPath,
	)
}
