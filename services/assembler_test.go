package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsmith/models"
	"shortsmith/utils"
)

// lastArgAfter returns the value following the last occurrence of flag
func lastArgAfter(args []string, flag string) string {
	for i := len(args) - 2; i >= 0; i-- {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestSceneAssembler_Assemble(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	audio := writeMedia(t, dir, "voice.mp3")
	shortClip := writeMedia(t, dir, "short.mp4")
	longClip := writeMedia(t, dir, "long.mp4")
	still := writeMedia(t, dir, "still.jpg")
	tool.durations[audio] = 7.25
	tool.durations[shortClip] = 2
	tool.durations[longClip] = 30
	for _, p := range []string{shortClip, longClip, still} {
		tool.dimensions[p] = [2]int{1920, 1080}
	}

	tests := []struct {
		name      string
		visual    models.Visual
		wantInput []string
	}{
		{"looped video", models.VideoVisual(shortClip), []string{"-stream_loop", "-1", "-t", "7.250", "-i", shortClip}},
		{"trimmed video", models.VideoVisual(longClip), []string{"-t", "7.250", "-i", longClip}},
		{"held still", models.ImageVisual(still), []string{"-loop", "1", "-framerate", "30", "-t", "7.250", "-i", still}},
	}

	sa := NewSceneAssembler(tool, testProfile())
	opts, err := models.RenderOptions{UseZoomEffect: true}.WithDefaults(models.AspectPortrait, "Arial")
	require.NoError(t, err)

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := models.Scene{
				Visual:   tt.visual,
				Audio:    audio,
				Captions: []models.Word{{Text: "word", Start: 0, End: 1}},
			}

			clip, err := sa.Assemble(context.Background(), i, scene, opts, filepath.Join(dir, "scenes"))
			require.NoError(t, err)
			assert.Equal(t, 7.25, clip.Duration)
			assert.True(t, utils.FileExists(clip.Path))

			runs := tool.runsWriting(filepath.Base(clip.Path))
			require.Len(t, runs, 1)
			args := runs[0]

			// visual input first, narration second
			assert.Equal(t, tt.wantInput, args[1:1+len(tt.wantInput)])
			next := 1 + len(tt.wantInput)
			assert.Equal(t, []string{"-i", audio}, args[next:next+2])

			// output cut to the narration length
			assert.Equal(t, utils.FormatSeconds(7.25), lastArgAfter(args, "-t"))

			filter := argAfter(args, "-filter_complex")
			assert.Contains(t, filter, "[1:a]aformat=sample_rates=44100:channel_layouts=stereo,apad[a]")
			assert.Contains(t, filter, "text=word")

			fpsAt := strings.Index(filter, "fps=30,zoompan=")
			assert.NotEqual(t, -1, fpsAt, "frame rate must be fixed right before zoompan")
		})
	}
}

func TestSceneAssembler_RunFailureRemovesClip(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	audio := writeMedia(t, dir, "voice.mp3")
	still := writeMedia(t, dir, "still.jpg")
	tool.durations[audio] = 3
	tool.dimensions[still] = [2]int{800, 600}
	tool.failRun = func([]string) error { return assert.AnError }

	sa := NewSceneAssembler(tool, testProfile())
	_, err := sa.Assemble(context.Background(), 0, models.Scene{Visual: models.ImageVisual(still), Audio: audio},
		models.RenderOptions{Aspect: models.AspectLandscape}, dir)

	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, utils.FileExists(filepath.Join(dir, "scene_000.mp4")))
}
