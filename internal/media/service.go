package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scamshield/scamshield/internal/analysis"
	"github.com/scamshield/scamshield/internal/security"
	"github.com/scamshield/scamshield/pkg/logging"
)

// ErrUnsupportedMedia indicates a content type the pipeline cannot
// transcribe.
var ErrUnsupportedMedia = errors.New("media: unsupported content type")

// audioExtensions maps accepted upload content types to the file extension
// the transcription API expects.
var audioExtensions = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/ogg":   ".ogg",
	"audio/webm":  ".webm",
	"audio/flac":  ".flac",
}

type jobStore interface {
	PutPending(ctx context.Context, job *JobRecord) error
	GetJob(ctx context.Context, jobID string) (*JobRecord, error)
	MarkTranscribing(ctx context.Context, jobID string) error
	MarkAnalyzing(ctx context.Context, jobID, transcript string) error
	MarkComplete(ctx context.Context, jobID string, result *analysis.Result) error
	MarkError(ctx context.Context, jobID, errMsg string) error
}

type objectStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, string, error)
	Size(ctx context.Context, key string) (int64, error)
}

// Transcriber converts stored audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, data []byte) (string, error)
}

// Analyzer runs the verdict pipeline over a submission.
type Analyzer interface {
	Analyze(ctx context.Context, sub analysis.Submission) (*analysis.Outcome, error)
}

// TaskRunner schedules background work detached from the request.
type TaskRunner interface {
	Submit(name string, fn func(ctx context.Context)) bool
}

// UploadTicket is returned to the client to perform the actual upload.
type UploadTicket struct {
	JobID     string `json:"jobId"`
	UploadURL string `json:"uploadUrl"`
}

// Service drives media jobs through their lifecycle.
type Service struct {
	jobs        jobStore
	media       objectStore
	transcriber Transcriber
	engine      Analyzer
	tasks       TaskRunner
	logger      *logging.Logger
}

// NewService wires the media pipeline together.
func NewService(jobs jobStore, media objectStore, transcriber Transcriber, engine Analyzer, tasks TaskRunner, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		jobs:        jobs,
		media:       media,
		transcriber: transcriber,
		engine:      engine,
		tasks:       tasks,
		logger:      logger.Component("media"),
	}
}

// CreateUpload registers a pending job and returns a presigned URL for the
// client to PUT the media to. The job row is written before the URL is
// issued so an orphaned upload can never exist without a job.
func (s *Service) CreateUpload(ctx context.Context, contentType string) (*UploadTicket, error) {
	if _, ok := audioExtensions[contentType]; !ok {
		return nil, ErrUnsupportedMedia
	}

	jobID := uuid.NewString()
	key := "media/" + jobID

	job := &JobRecord{
		JobID:       jobID,
		StorageKey:  key,
		ContentType: contentType,
	}
	if err := s.jobs.PutPending(ctx, job); err != nil {
		return nil, fmt.Errorf("media: create job: %w", err)
	}

	uploadURL, err := s.media.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("media: presign upload: %w", err)
	}

	s.logger.Info("media job created", "job_id", jobID, "content_type", contentType)
	return &UploadTicket{JobID: jobID, UploadURL: uploadURL}, nil
}

// Analyze starts processing for an uploaded job. Calling it again for the
// same job never re-runs the pipeline: any non-pending job is returned
// as-is, so the second caller observes the first call's state.
func (s *Service) Analyze(ctx context.Context, jobID string) (*JobRecord, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != JobStatusPending {
		return job, nil
	}

	if err := s.jobs.MarkTranscribing(ctx, jobID); err != nil {
		return nil, err
	}
	job.Status = JobStatusTranscribing

	storageKey := job.StorageKey
	contentType := job.ContentType
	scheduled := s.tasks.Submit("media_process", func(ctx context.Context) {
		s.process(ctx, jobID, storageKey, contentType)
	})
	if !scheduled {
		// A dropped task would leave the job in transcribing forever; fail it
		// now so pollers see a terminal state.
		const msg = "processing could not be scheduled"
		s.fail(ctx, jobID, msg, errors.New("media: task runner rejected job"))
		job.Status = JobStatusError
		job.ErrorMessage = msg
	}

	return job, nil
}

// Status returns the current job state without side effects.
func (s *Service) Status(ctx context.Context, jobID string) (*JobRecord, error) {
	return s.jobs.GetJob(ctx, jobID)
}

func (s *Service) process(ctx context.Context, jobID, storageKey, contentType string) {
	size, err := s.media.Size(ctx, storageKey)
	if err != nil {
		s.fail(ctx, jobID, "media file was not uploaded", err)
		return
	}
	if size > maxAudioBytes {
		s.fail(ctx, jobID, "audio exceeds the 25MB limit", ErrAudioTooLarge)
		return
	}

	data, _, err := s.media.Get(ctx, storageKey)
	if err != nil {
		s.fail(ctx, jobID, "media file could not be read", err)
		return
	}

	transcript, err := s.transcriber.Transcribe(ctx, "audio"+audioExtensions[contentType], data)
	if err != nil {
		s.fail(ctx, jobID, "transcription failed", err)
		return
	}

	// Only the scrubbed transcript is durable; the engine gets the raw text
	// so contact and URL extraction still see the original digits.
	if err := s.jobs.MarkAnalyzing(ctx, jobID, security.Scrub(transcript)); err != nil {
		s.logger.Error("failed to record transcript", "job_id", jobID, "error", err)
	}

	out, err := s.engine.Analyze(ctx, analysis.Submission{Text: transcript})
	if err != nil {
		s.fail(ctx, jobID, "analysis failed", err)
		return
	}

	if err := s.jobs.MarkComplete(ctx, jobID, out.Result); err != nil {
		s.logger.Error("failed to complete job", "job_id", jobID, "error", err)
		return
	}
	s.logger.Info("media job complete", "job_id", jobID, "verdict", out.Result.Verdict)
}

func (s *Service) fail(ctx context.Context, jobID, message string, cause error) {
	s.logger.Warn("media job failed", "job_id", jobID, "reason", message, "error", cause)
	if err := s.jobs.MarkError(ctx, jobID, message); err != nil {
		s.logger.Error("failed to mark job errored", "job_id", jobID, "error", err)
	}
}
