package services

import (
	"fmt"
	"math"

	"shortsmith/models"
)

// Geometry describes the cover scale and center crop of one visual
type Geometry struct {
	Canvas  models.Canvas
	Scale   float64
	ScaledW int
	ScaledH int
	CropX   int
	CropY   int
}

// CoverScale is the smallest uniform scale that makes a w×h source cover
// the canvas on both axes
func CoverScale(w, h int, canvas models.Canvas) float64 {
	return math.Max(float64(canvas.Width)/float64(w), float64(canvas.Height)/float64(h))
}

// CoverGeometry scales a w×h source to cover the canvas and centers the
// crop window. Scaled sizes are rounded up to even numbers and never fall
// below the canvas.
func CoverGeometry(w, h int, canvas models.Canvas) Geometry {
	scale := CoverScale(w, h, canvas)
	scaledW := max(evenCeil(float64(w)*scale), canvas.Width)
	scaledH := max(evenCeil(float64(h)*scale), canvas.Height)

	return Geometry{
		Canvas:  canvas,
		Scale:   scale,
		ScaledW: scaledW,
		ScaledH: scaledH,
		CropX:   (scaledW - canvas.Width) / 2,
		CropY:   (scaledH - canvas.Height) / 2,
	}
}

// evenCeil rounds up to the next even integer, ignoring float noise
func evenCeil(v float64) int {
	n := int(math.Ceil(v - 1e-6))
	if n%2 != 0 {
		n++
	}
	return n
}

// FrameCompositor fits normalized visuals onto the output canvas
type FrameCompositor struct {
	fps      int
	zoomRate float64
}

// NewFrameCompositor creates a compositor. zoomRate is the growth of the
// zoom factor per second of scene time.
func NewFrameCompositor(fps int, zoomRate float64) *FrameCompositor {
	return &FrameCompositor{fps: fps, zoomRate: zoomRate}
}

// ZoomFactor is the extra scale applied t seconds into a scene
func (fc *FrameCompositor) ZoomFactor(t float64) float64 {
	return 1 + fc.zoomRate*t
}

// Filter returns the filter chain that scales, crops and optionally zooms.
// Scaling works from the decoded frame size, so rotated sources are
// covered correctly. The frame rate is fixed before zoompan, which emits
// exactly one frame per input frame.
func (fc *FrameCompositor) Filter(g Geometry, zoom bool) string {
	chain := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase:force_divisible_by=2:flags=lanczos,crop=%d:%d,setsar=1,fps=%d",
		g.Canvas.Width, g.Canvas.Height, g.Canvas.Width, g.Canvas.Height, fc.fps)

	if zoom && fc.zoomRate > 0 {
		chain += fmt.Sprintf(",zoompan=z='1+%.6f*it':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=1:s=%dx%d:fps=%d",
			fc.zoomRate, g.Canvas.Width, g.Canvas.Height, fc.fps)
	}

	return chain
}
