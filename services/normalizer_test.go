package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsmith/models"
)

func TestLoopCount(t *testing.T) {
	tests := []struct {
		name           string
		source, target float64
		want           int
	}{
		{"longer clip is trimmed", 10, 4, 1},
		{"equal lengths", 4, 4, 1},
		{"short clip repeats", 2, 7, 4},
		{"exact multiple", 2, 6, 3},
		{"unknown source length", 0, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LoopCount(tt.source, tt.target))
		})
	}
}

func TestMediaNormalizer_Normalize(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	audio := writeMedia(t, dir, "voice.mp3")
	clip := writeMedia(t, dir, "clip.mp4")
	still := writeMedia(t, dir, "still.png")
	tool.durations[audio] = 7
	tool.durations[clip] = 2
	tool.dimensions[clip] = [2]int{1920, 1080}
	tool.dimensions[still] = [2]int{800, 600}

	mn := NewMediaNormalizer(tool)
	ctx := context.Background()

	t.Run("short video loops", func(t *testing.T) {
		media, err := mn.Normalize(ctx, models.Scene{Visual: models.VideoVisual(clip), Audio: audio})
		require.NoError(t, err)
		assert.Equal(t, 7.0, media.Duration)
		assert.Equal(t, 4, media.Loops)
		assert.Equal(t, []string{"-stream_loop", "-1", "-t", "7.000", "-i", clip}, media.VisualInputArgs(30))
	})

	t.Run("image is held", func(t *testing.T) {
		media, err := mn.Normalize(ctx, models.Scene{Visual: models.Visual{Path: still}, Audio: audio})
		require.NoError(t, err)
		assert.Equal(t, models.VisualImage, media.Visual.Kind)
		assert.Equal(t, 1, media.Loops)
		assert.Equal(t, []string{"-loop", "1", "-framerate", "30", "-t", "7.000", "-i", still}, media.VisualInputArgs(30))
	})

	t.Run("long video is trimmed", func(t *testing.T) {
		tool.durations[clip] = 30
		defer func() { tool.durations[clip] = 2 }()

		media, err := mn.Normalize(ctx, models.Scene{Visual: models.VideoVisual(clip), Audio: audio})
		require.NoError(t, err)
		assert.Equal(t, []string{"-t", "7.000", "-i", clip}, media.VisualInputArgs(30))
	})
}

func TestMediaNormalizer_Errors(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	audio := writeMedia(t, dir, "voice.mp3")
	still := writeMedia(t, dir, "still.png")
	broken := writeMedia(t, dir, "broken.jpg")
	tool.durations[audio] = 3
	tool.dimensions[still] = [2]int{800, 600}

	mn := NewMediaNormalizer(tool)

	tests := []struct {
		name  string
		scene models.Scene
	}{
		{"missing visual", models.Scene{Visual: models.ImageVisual(dir + "/nope.png"), Audio: audio}},
		{"missing audio", models.Scene{Visual: models.ImageVisual(still), Audio: dir + "/nope.mp3"}},
		{"empty audio path", models.Scene{Visual: models.ImageVisual(still)}},
		{"undecodable visual", models.Scene{Visual: models.ImageVisual(broken), Audio: audio}},
		{"unknown kind", models.Scene{Visual: models.Visual{Kind: "hologram", Path: still}, Audio: audio}},
		{"unprobeable audio", models.Scene{Visual: models.ImageVisual(still), Audio: still}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mn.Normalize(context.Background(), tt.scene)
			assert.Error(t, err)
		})
	}
}
