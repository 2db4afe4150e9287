package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsmith/models"
)

func TestCoverGeometry_AlwaysCovers(t *testing.T) {
	sources := [][2]int{
		{1920, 1080}, {1080, 1920}, {640, 480}, {4000, 3000}, {720, 1280},
		{1, 1}, {3840, 2160}, {1081, 1921}, {333, 777}, {1920, 1920}, {5000, 200},
	}

	for _, canvas := range []models.Canvas{models.PortraitCanvas, models.LandscapeCanvas} {
		for _, src := range sources {
			t.Run(fmt.Sprintf("%dx%d_on_%s", src[0], src[1], canvas), func(t *testing.T) {
				g := CoverGeometry(src[0], src[1], canvas)

				assert.GreaterOrEqual(t, g.ScaledW, canvas.Width)
				assert.GreaterOrEqual(t, g.ScaledH, canvas.Height)
				assert.Zero(t, g.ScaledW%2)
				assert.Zero(t, g.ScaledH%2)
				assert.Equal(t, (g.ScaledW-canvas.Width)/2, g.CropX)
				assert.Equal(t, (g.ScaledH-canvas.Height)/2, g.CropY)
				assert.GreaterOrEqual(t, g.CropX, 0)
				assert.GreaterOrEqual(t, g.CropY, 0)
			})
		}
	}
}

func TestCoverGeometry_LandscapeOnPortrait(t *testing.T) {
	g := CoverGeometry(1920, 1080, models.PortraitCanvas)

	assert.InDelta(t, 1920.0/1080.0, g.Scale, 1e-9)
	assert.Equal(t, 1920, g.ScaledH)
	assert.Equal(t, 3414, g.ScaledW)
	assert.Equal(t, 1167, g.CropX)
	assert.Equal(t, 0, g.CropY)
}

func TestCoverGeometry_ExactFit(t *testing.T) {
	g := CoverGeometry(1080, 1920, models.PortraitCanvas)

	assert.Equal(t, 1.0, g.Scale)
	assert.Equal(t, 1080, g.ScaledW)
	assert.Equal(t, 1920, g.ScaledH)
	assert.Zero(t, g.CropX)
	assert.Zero(t, g.CropY)
}

func TestFrameCompositor_Filter(t *testing.T) {
	fc := NewFrameCompositor(30, 0.02)
	g := CoverGeometry(1920, 1080, models.PortraitCanvas)

	t.Run("static", func(t *testing.T) {
		assert.Equal(t,
			"scale=1080:1920:force_original_aspect_ratio=increase:force_divisible_by=2:flags=lanczos,crop=1080:1920,setsar=1,fps=30",
			fc.Filter(g, false))
	})

	t.Run("zoom", func(t *testing.T) {
		filter := fc.Filter(g, true)
		assert.Contains(t, filter, "zoompan=z='1+0.020000*it'")
		assert.Contains(t, filter, "x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)'")
		assert.Contains(t, filter, "d=1:s=1080x1920:fps=30")
	})

	t.Run("frame rate fixed before zoom", func(t *testing.T) {
		filter := fc.Filter(g, true)
		fpsAt := strings.Index(filter, ",fps=30")
		zoomAt := strings.Index(filter, "zoompan=")
		require.NotEqual(t, -1, fpsAt)
		assert.Less(t, fpsAt, zoomAt)
	})

	t.Run("scale follows decoded size", func(t *testing.T) {
		// rotated sources report swapped stored dimensions, so the filter
		// must not bake in a probed scale size
		rotated := CoverGeometry(1080, 1920, models.PortraitCanvas)
		assert.Equal(t, fc.Filter(g, false), fc.Filter(rotated, false))
		assert.Contains(t, fc.Filter(g, false), "force_original_aspect_ratio=increase")
	})

	t.Run("zero rate disables zoom", func(t *testing.T) {
		assert.NotContains(t, NewFrameCompositor(30, 0).Filter(g, true), "zoompan")
	})
}

func TestFrameCompositor_ZoomFactor(t *testing.T) {
	fc := NewFrameCompositor(30, 0.02)

	assert.Equal(t, 1.0, fc.ZoomFactor(0))
	assert.InDelta(t, 1.1, fc.ZoomFactor(5), 1e-9)
}
