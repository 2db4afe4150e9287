package services

import (
	"bufio"
	"fmt"
	"os"

	"shortsmith/utils"
)

// WriteSRT writes every caption of the timeline, shifted from scene time to
// timeline time, as an SRT file
func WriteSRT(timeline *Timeline, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create SRT file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	cue := 1
	for i, clip := range timeline.Clips {
		offset := timeline.Offsets[i]
		for _, c := range clip.Captions {
			end := min(c.End, clip.Duration)
			if end <= c.Start {
				continue
			}
			fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n", cue,
				utils.FormatSRTTimestamp(offset+c.Start),
				utils.FormatSRTTimestamp(offset+end),
				c.Text)
			cue++
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write SRT file: %w", err)
	}
	return nil
}
