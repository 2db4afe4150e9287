package utils

import (
	"fmt"
	"math"
	"strconv"
)

// FormatSRTTimestamp formats seconds to SRT timestamp format (HH:MM:SS,mmm)
func FormatSRTTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(math.Round(seconds * 1000))

	ms := totalMs % 1000
	s := (totalMs / 1000) % 60
	m := (totalMs / 60000) % 60
	h := totalMs / 3600000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// FormatSeconds renders seconds for ffmpeg arguments and filter expressions
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
