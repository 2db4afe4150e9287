package services

import (
	"context"
	"fmt"

	"shortsmith/config"
	"shortsmith/utils"
)

// MusicPlan says how a music bed is fitted to the timeline
type MusicPlan struct {
	Loop     bool    // repeat the track because it is shorter than the timeline
	Duration float64 // length the bed is cut to: always the timeline length
}

// PlanMusic loops music shorter than the timeline and trims everything to
// the timeline length. Longer music is trimmed only.
func PlanMusic(musicDuration, timelineDuration float64) MusicPlan {
	return MusicPlan{
		Loop:     musicDuration < timelineDuration,
		Duration: timelineDuration,
	}
}

// AudioMixer lays background music under the narration track
type AudioMixer struct {
	tool    MediaTool
	profile config.RenderProfile
}

// NewAudioMixer creates a new audio mixer
func NewAudioMixer(tool MediaTool, profile config.RenderProfile) *AudioMixer {
	return &AudioMixer{tool: tool, profile: profile}
}

// Mix writes the narration of timeline summed with attenuated music to
// outputPath (audio only).
func (am *AudioMixer) Mix(ctx context.Context, timeline *Timeline, musicPath, outputPath string) error {
	if err := utils.RequireFile(musicPath); err != nil {
		return fmt.Errorf("music unavailable: %w", err)
	}

	musicDuration, err := am.tool.Duration(ctx, musicPath)
	if err != nil {
		return fmt.Errorf("failed to read music duration: %w", err)
	}

	plan := PlanMusic(musicDuration, timeline.Duration)
	if err := am.tool.Run(ctx, am.buildArgs(timeline.Path, musicPath, plan, outputPath)); err != nil {
		utils.RemoveIfExists(outputPath)
		return fmt.Errorf("failed to mix music: %w", err)
	}

	return nil
}

func (am *AudioMixer) buildArgs(timelinePath, musicPath string, plan MusicPlan, outputPath string) []string {
	duration := utils.FormatSeconds(plan.Duration)

	args := []string{"-y", "-i", timelinePath}
	if plan.Loop {
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args, "-i", musicPath)

	filter := fmt.Sprintf(
		"[1:a]atrim=duration=%s,asetpts=PTS-STARTPTS,aformat=sample_rates=%d:channel_layouts=stereo,volume=%.3f[bg];"+
			"[0:a][bg]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[aout]",
		duration, am.profile.AudioSampleRate, am.profile.MusicGain)

	return append(args,
		"-filter_complex", filter,
		"-map", "[aout]",
		"-t", duration,
		"-c:a", am.profile.AudioCodec,
		"-b:a", am.profile.AudioBitrate,
		"-ar", fmt.Sprint(am.profile.AudioSampleRate),
		outputPath,
	)
}
