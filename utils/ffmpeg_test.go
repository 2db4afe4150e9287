package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("12.480000\n")
	require.NoError(t, err)
	assert.Equal(t, 12.48, d)

	for _, bad := range []string{"", "N/A", "0.000000", "-1"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		name  string
		out   string
		wantW int
		wantH int
	}{
		{"plain", "1920x1080\n", 1920, 1080},
		{"trailing separator", "1080x1920x\n", 1080, 1920},
		{"multiple streams", "640x480\n1280x720\n", 640, 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ParseDimensions(tt.out)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestParseDimensions_Invalid(t *testing.T) {
	for _, bad := range []string{"", "1920", "axb", "0x1080", "1920x-1"} {
		_, _, err := ParseDimensions(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNewFFmpeg_Defaults(t *testing.T) {
	f := NewFFmpeg("", "")
	assert.Equal(t, "ffmpeg", f.Bin)
	assert.Equal(t, "ffprobe", f.ProbeBin)

	f = NewFFmpeg("/opt/ffmpeg/bin/ffmpeg", "/opt/ffmpeg/bin/ffprobe")
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", f.Bin)
}
