package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shortsmith/config"
	"shortsmith/models"
	"shortsmith/services"
	"shortsmith/store"
	"shortsmith/utils"
)

// VideoHandler handles render and generation jobs
type VideoHandler struct {
	cfg           *config.Config
	jobs          store.JobStore
	renderer      *services.Renderer
	producer      *services.SceneProducer // nil when stock media or TTS is not configured
	textProcessor *services.TextProcessor
	defaultAspect models.Aspect
	keyPools      map[string]*utils.KeyPool

	// Renders are heavy; MaxConcurrentRenders bounds them
	renderSem chan struct{}
}

// NewVideoHandler creates a video handler with production services
func NewVideoHandler(cfg *config.Config, jobs store.JobStore) *VideoHandler {
	ffmpeg := utils.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath)
	aspect, _ := models.ParseAspect(cfg.DefaultAspect)
	renderer := services.NewRenderer(ffmpeg, cfg.Render, aspect, cfg.FontPath)
	textProcessor := services.NewTextProcessor(6.0)

	pools := map[string]*utils.KeyPool{
		"pexels":     utils.NewKeyPool(cfg.PexelsAPIKeys),
		"elevenlabs": utils.NewKeyPool(cfg.ElevenLabsAPIKeys),
	}

	var producer *services.SceneProducer
	if cfg.CanProduce() {
		retryDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
		stock := services.NewStockMediaService(pools["pexels"], retryDelay)
		narrator := services.NewAudioService(pools["elevenlabs"], cfg.ElevenLabsVoiceID, retryDelay)

		var transcriber services.WordTranscriber
		if cfg.OpenAIAPIKey != "" || cfg.OpenAIBaseURL != "" {
			transcriber = services.NewTranscriber(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.WhisperModel)
		}
		producer = services.NewSceneProducer(stock, narrator, transcriber, ffmpeg, textProcessor)
	} else {
		log.Printf("Stock media or TTS keys missing, /api/generate disabled")
	}

	h := newVideoHandler(cfg, jobs, renderer, producer, textProcessor)
	h.keyPools = pools
	return h
}

func newVideoHandler(cfg *config.Config, jobs store.JobStore, renderer *services.Renderer, producer *services.SceneProducer, textProcessor *services.TextProcessor) *VideoHandler {
	aspect, err := models.ParseAspect(cfg.DefaultAspect)
	if err != nil {
		aspect = models.AspectPortrait
	}
	return &VideoHandler{
		cfg:           cfg,
		jobs:          jobs,
		renderer:      renderer,
		producer:      producer,
		textProcessor: textProcessor,
		defaultAspect: aspect,
		renderSem:     make(chan struct{}, max(cfg.MaxConcurrentRenders, 1)),
	}
}

// Health handles GET /health
func (h *VideoHandler) Health(c *gin.Context) {
	providers := gin.H{}
	for name, pool := range h.keyPools {
		providers[name] = pool.Stats()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"time":             time.Now(),
		"generate_enabled": h.producer != nil,
		"providers":        providers,
	})
}

// Render handles POST /api/render
func (h *VideoHandler) Render(c *gin.Context) {
	var req models.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if len(req.Scenes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one scene is required"})
		return
	}
	if err := h.confineScenes(req.Scenes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.confineOptions(&req.Options); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := req.Options.WithDefaults(h.defaultAspect, h.cfg.FontPath); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.createJob(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	go h.processRender(jobID, req.Scenes, req.Options)

	c.JSON(http.StatusAccepted, models.GenerateResponse{
		JobID:  jobID,
		Status: models.JobProcessing,
	})
}

// Generate handles POST /api/generate
func (h *VideoHandler) Generate(c *gin.Context) {
	if h.producer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Media providers are not configured"})
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	script := req.Scenes
	if len(script) == 0 {
		for _, text := range h.textProcessor.SplitIntoScenes(req.Script) {
			script = append(script, models.ScriptScene{Text: text, VisualKeyword: req.Keywords})
		}
	}
	if len(script) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scenes or script is required"})
		return
	}
	if err := h.confineOptions(&req.Options); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := req.Options.WithDefaults(h.defaultAspect, h.cfg.FontPath); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.createJob(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	go h.processGeneration(jobID, script, req.Voice, req.Options)

	c.JSON(http.StatusAccepted, models.GenerateResponse{
		JobID:  jobID,
		Status: models.JobProcessing,
	})
}

// GetStatus handles GET /api/status/:job_id
func (h *VideoHandler) GetStatus(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job.ToResponse())
}

// ListJobs handles GET /api/jobs
func (h *VideoHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	jobs, err := h.jobs.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	resp := make([]gin.H, 0, len(jobs))
	for i := range jobs {
		resp = append(resp, gin.H{"job_id": jobs[i].JobID, "job": jobs[i].ToResponse()})
	}
	c.JSON(http.StatusOK, resp)
}

// Download handles GET /api/download/:job_id
func (h *VideoHandler) Download(c *gin.Context) {
	job, ok := h.lookupCompletedJob(c)
	if !ok {
		return
	}
	if job.VideoPath == "" || !utils.FileExists(job.VideoPath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video file not found"})
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=video_%s.mp4", job.JobID))
	c.File(job.VideoPath)
}

// DownloadSubtitle handles GET /api/download-subtitle/:job_id
func (h *VideoHandler) DownloadSubtitle(c *gin.Context) {
	job, ok := h.lookupCompletedJob(c)
	if !ok {
		return
	}
	if job.SubtitlePath == "" || !utils.FileExists(job.SubtitlePath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subtitle file not found"})
		return
	}

	c.Header("Content-Type", "application/x-subrip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=subtitles_%s.srt", job.JobID))
	c.File(job.SubtitlePath)
}

func (h *VideoHandler) lookupJob(c *gin.Context) (*models.JobStatus, bool) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("job_id"))
	if errors.Is(err, store.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job"})
		return nil, false
	}
	return job, true
}

func (h *VideoHandler) lookupCompletedJob(c *gin.Context) (*models.JobStatus, bool) {
	job, ok := h.lookupJob(c)
	if !ok {
		return nil, false
	}
	if job.Status != models.JobCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job not completed yet"})
		return nil, false
	}
	return job, true
}

func (h *VideoHandler) createJob(ctx context.Context) (string, error) {
	jobID := uuid.New().String()
	now := time.Now()
	job := &models.JobStatus{
		JobID:       jobID,
		Status:      models.JobProcessing,
		CurrentStep: "Queued",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		log.Printf("[Job %s] failed to store job: %v", jobID, err)
		return "", err
	}
	return jobID, nil
}

// processGeneration produces scenes from the script, then renders them
func (h *VideoHandler) processGeneration(jobID string, script []models.ScriptScene, voice string, opts models.RenderOptions) {
	ctx := context.Background()
	h.acquire(jobID)
	defer h.release()

	jobDir, err := utils.CreateTempDir(h.cfg.TempDir, jobID)
	if err != nil {
		h.markJobFailed(jobID, fmt.Errorf("failed to create temp dir: %w", err))
		return
	}

	resolved, err := opts.WithDefaults(h.defaultAspect, h.cfg.FontPath)
	if err != nil {
		h.markJobFailed(jobID, err)
		return
	}

	h.updateStatus(jobID, fmt.Sprintf("Producing %d scenes", len(script)), 5)
	scenes, err := h.producer.Produce(ctx, services.ProduceRequest{
		Script:      script,
		Voice:       voice,
		Orientation: resolved.Aspect.Orientation(),
		VisualsDir:  filepath.Join(jobDir, utils.VisualsDir),
		AudioDir:    filepath.Join(jobDir, utils.AudioDir),
		Progress: func(done, total int) {
			h.updateStatus(jobID, fmt.Sprintf("Producing scene %d/%d", done+1, total), 5+35*done/max(total, 1))
		},
	})
	if err != nil {
		h.markJobFailed(jobID, fmt.Errorf("scene production failed: %w", err))
		return
	}
	skipped := len(script) - len(scenes)

	h.render(ctx, jobID, jobDir, scenes, opts, 40, skipped)
}

// processRender renders caller-supplied scenes
func (h *VideoHandler) processRender(jobID string, scenes []models.Scene, opts models.RenderOptions) {
	ctx := context.Background()
	h.acquire(jobID)
	defer h.release()

	jobDir, err := utils.CreateTempDir(h.cfg.TempDir, jobID)
	if err != nil {
		h.markJobFailed(jobID, fmt.Errorf("failed to create temp dir: %w", err))
		return
	}

	h.render(ctx, jobID, jobDir, scenes, opts, 0, 0)
}

// render runs the renderer, mapping its progress onto [base, 100]
func (h *VideoHandler) render(ctx context.Context, jobID, jobDir string, scenes []models.Scene, opts models.RenderOptions, base, alreadySkipped int) {
	result, err := h.renderer.Render(ctx, services.RenderRequest{
		Scenes:     scenes,
		Options:    opts,
		OutputPath: filepath.Join(jobDir, utils.OutputDir, "final_video.mp4"),
		WorkDir:    jobDir,
		Progress: func(step string, progress int) {
			h.updateStatus(jobID, step, base+(100-base)*progress/100)
		},
	})
	if err != nil {
		h.markJobFailed(jobID, err)
		utils.ScheduleCleanup(h.cfg.TempDir, jobID, h.cfg.CleanupAfter)
		return
	}

	for _, dropped := range result.Report.DroppedFeatures {
		log.Printf("[Job %s] %s dropped: %v", jobID, dropped.Feature, dropped.Err)
	}

	err = h.jobs.Update(ctx, jobID, func(job *models.JobStatus) {
		job.Status = models.JobCompleted
		job.Progress = 100
		job.CurrentStep = "Complete"
		job.VideoPath = result.OutputPath
		job.SubtitlePath = result.SubtitlePath
		job.SkippedScenes = alreadySkipped + len(result.Report.SkippedScenes)
	})
	if err != nil {
		log.Printf("[Job %s] failed to store completion: %v", jobID, err)
	}

	log.Printf("[Job %s] Video rendered: %d scene(s), %.2fs", jobID, result.Scenes, result.Duration)
	utils.ScheduleCleanup(h.cfg.TempDir, jobID, h.cfg.CleanupAfter)
}

func (h *VideoHandler) acquire(jobID string) {
	h.updateStatus(jobID, "Waiting for a render slot", 0)
	h.renderSem <- struct{}{}
}

func (h *VideoHandler) release() {
	<-h.renderSem
}

func (h *VideoHandler) updateStatus(jobID, step string, progress int) {
	err := h.jobs.Update(context.Background(), jobID, func(job *models.JobStatus) {
		job.CurrentStep = step
		job.Progress = progress
	})
	if err != nil {
		log.Printf("[Job %s] failed to update status: %v", jobID, err)
		return
	}
	log.Printf("[Job %s] %s (%d%%)", jobID, step, progress)
}

// markJobFailed marks a job as failed
func (h *VideoHandler) markJobFailed(jobID string, err error) {
	log.Printf("[Job %s] FAILED: %v", jobID, err)
	updateErr := h.jobs.Update(context.Background(), jobID, func(job *models.JobStatus) {
		job.Status = models.JobFailed
		job.Error = err.Error()
	})
	if updateErr != nil {
		log.Printf("[Job %s] failed to store failure: %v", jobID, updateErr)
	}
}
