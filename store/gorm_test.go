package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shortsmith/models"
)

func TestJobRecord_RoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	job := &models.JobStatus{
		JobID:         "abc",
		Status:        models.JobCompleted,
		Progress:      100,
		CurrentStep:   "Complete",
		VideoPath:     "/tmp/abc/output/final_video.mp4",
		SubtitlePath:  "/tmp/abc/output/final_video.srt",
		SkippedScenes: 2,
		CreatedAt:     created,
		UpdatedAt:     created.Add(time.Minute),
	}

	record := recordFromJob(job)
	assert.Equal(t, "render_jobs", record.TableName())
	assert.Equal(t, job, record.toJob())
}
