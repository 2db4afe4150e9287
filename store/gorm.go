package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"shortsmith/models"
)

// JobRecord is the database row of a render job
type JobRecord struct {
	JobID         string `gorm:"primaryKey;size:36"`
	Status        string `gorm:"size:16;index"`
	Progress      int
	CurrentStep   string
	VideoPath     string
	SubtitlePath  string
	Error         string
	SkippedScenes int
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

// TableName keeps the table name stable
func (JobRecord) TableName() string { return "render_jobs" }

func recordFromJob(job *models.JobStatus) JobRecord {
	return JobRecord{
		JobID:         job.JobID,
		Status:        job.Status,
		Progress:      job.Progress,
		CurrentStep:   job.CurrentStep,
		VideoPath:     job.VideoPath,
		SubtitlePath:  job.SubtitlePath,
		Error:         job.Error,
		SkippedScenes: job.SkippedScenes,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

func (r JobRecord) toJob() *models.JobStatus {
	return &models.JobStatus{
		JobID:         r.JobID,
		Status:        r.Status,
		Progress:      r.Progress,
		CurrentStep:   r.CurrentStep,
		VideoPath:     r.VideoPath,
		SubtitlePath:  r.SubtitlePath,
		Error:         r.Error,
		SkippedScenes: r.SkippedScenes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// GormStore keeps jobs in postgres
type GormStore struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the jobs table
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an open connection and migrates the jobs table
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&JobRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate jobs table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Create inserts a job
func (s *GormStore) Create(ctx context.Context, job *models.JobStatus) error {
	record := recordFromJob(job)
	return s.db.WithContext(ctx).Create(&record).Error
}

// Get loads a job
func (s *GormStore) Get(ctx context.Context, jobID string) (*models.JobStatus, error) {
	var record JobRecord
	err := s.db.WithContext(ctx).First(&record, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.toJob(), nil
}

// Update locks the row, applies fn and saves it in one transaction
func (s *GormStore) Update(ctx context.Context, jobID string, fn func(job *models.JobStatus)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record JobRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "job_id = ?", jobID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}

		job := record.toJob()
		fn(job)
		job.UpdatedAt = time.Now()
		updated := recordFromJob(job)
		return tx.Save(&updated).Error
	})
}

// List returns the most recent jobs first
func (s *GormStore) List(ctx context.Context, limit int) ([]models.JobStatus, error) {
	var records []JobRecord
	q := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}

	jobs := make([]models.JobStatus, 0, len(records))
	for _, r := range records {
		jobs = append(jobs, *r.toJob())
	}
	return jobs, nil
}
