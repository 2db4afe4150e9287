package models

import "time"

// Job states
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// RenderRequest is the body of POST /api/render: already-produced scenes
type RenderRequest struct {
	Scenes  []Scene       `json:"scenes" binding:"required"`
	Options RenderOptions `json:"options"`
}

// GenerateRequest is the body of POST /api/generate. Either Scenes or Script
// must be provided; a plain Script is split into scenes server-side and
// every scene searches stock media with Keywords.
type GenerateRequest struct {
	Scenes   []ScriptScene `json:"scenes"`
	Script   string        `json:"script"`
	Keywords string        `json:"keywords"`
	Voice    string        `json:"voice"`
	Options  RenderOptions `json:"options"`
}

// GenerateResponse returns the job ID
type GenerateResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// StatusResponse returns current progress
type StatusResponse struct {
	Status        string  `json:"status"` // "processing", "completed", "failed"
	Progress      int     `json:"progress"`
	CurrentStep   string  `json:"current_step"`
	SkippedScenes int     `json:"skipped_scenes"`
	VideoURL      *string `json:"video_url,omitempty"`
	SubtitleURL   *string `json:"subtitle_url,omitempty"`
	Error         *string `json:"error,omitempty"`
}

// JobStatus tracks a render job
type JobStatus struct {
	JobID         string
	Status        string
	Progress      int
	CurrentStep   string
	VideoPath     string
	SubtitlePath  string
	Error         string
	SkippedScenes int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Terminal reports whether the job has stopped changing.
func (j *JobStatus) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// ToResponse builds the public view of the job.
func (j *JobStatus) ToResponse() StatusResponse {
	resp := StatusResponse{
		Status:        j.Status,
		Progress:      j.Progress,
		CurrentStep:   j.CurrentStep,
		SkippedScenes: j.SkippedScenes,
	}
	if j.Status == JobCompleted && j.VideoPath != "" {
		videoURL := "/api/download/" + j.JobID
		resp.VideoURL = &videoURL
	}
	if j.Status == JobCompleted && j.SubtitlePath != "" {
		subURL := "/api/download-subtitle/" + j.JobID
		resp.SubtitleURL = &subURL
	}
	if j.Error != "" {
		errMsg := j.Error
		resp.Error = &errMsg
	}
	return resp
}
