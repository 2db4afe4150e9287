package models

import (
	"errors"
	"fmt"
)

// ErrUnknownAspect is returned for aspect presets other than 9:16 and 16:9
var ErrUnknownAspect = errors.New("unknown aspect preset")

// Aspect selects one of the supported output canvases
type Aspect string

const (
	AspectPortrait  Aspect = "9:16"
	AspectLandscape Aspect = "16:9"
)

// Canvas is the fixed output frame size
type Canvas struct {
	Width  int
	Height int
}

var (
	PortraitCanvas  = Canvas{Width: 1080, Height: 1920}
	LandscapeCanvas = Canvas{Width: 1920, Height: 1080}
)

// ParseAspect accepts the ratio form or the preset name.
func ParseAspect(s string) (Aspect, error) {
	switch s {
	case "9:16", "portrait", "vertical", "":
		return AspectPortrait, nil
	case "16:9", "landscape", "horizontal":
		return AspectLandscape, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAspect, s)
}

// Canvas returns the frame size for the preset
func (a Aspect) Canvas() Canvas {
	if a == AspectLandscape {
		return LandscapeCanvas
	}
	return PortraitCanvas
}

// Orientation is the stock-media search orientation matching the preset
func (a Aspect) Orientation() string {
	if a == AspectLandscape {
		return "landscape"
	}
	return "portrait"
}

func (c Canvas) String() string {
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}
