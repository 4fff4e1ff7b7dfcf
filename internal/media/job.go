// Package media runs asynchronous analysis of uploaded voicemail and audio
// clips: upload via presigned URL, transcribe, then feed the transcript
// through the same verdict engine as text submissions.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/scamshield/scamshield/internal/analysis"
	"github.com/scamshield/scamshield/pkg/logging"
)

const jobTTL = 24 * time.Hour

// JobStatus is the lifecycle of a media analysis job. Transitions only move
// forward; complete and error are terminal.
type JobStatus string

const (
	JobStatusPending      JobStatus = "pending"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusAnalyzing    JobStatus = "analyzing"
	JobStatusComplete     JobStatus = "complete"
	JobStatusError        JobStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusError
}

// ErrJobNotFound indicates the requested job ID does not exist.
var ErrJobNotFound = errors.New("media: job not found")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// JobRecord captures the persisted state of a media analysis job.
type JobRecord struct {
	JobID        string           `dynamodbav:"jobId" json:"jobId"`
	Status       JobStatus        `dynamodbav:"status" json:"status"`
	StorageKey   string           `dynamodbav:"storageKey" json:"-"`
	ContentType  string           `dynamodbav:"contentType" json:"contentType,omitempty"`
	Transcript   string           `dynamodbav:"transcript,omitempty" json:"transcript,omitempty"`
	Result       *analysis.Result `dynamodbav:"result,omitempty" json:"result,omitempty"`
	ErrorMessage string           `dynamodbav:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt    string           `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt    string           `dynamodbav:"updatedAt" json:"updatedAt"`
	ExpiresAt    int64            `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// JobStore persists job records to DynamoDB.
type JobStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewJobStore builds a store backed by the provided DynamoDB client.
func NewJobStore(client dynamoAPI, tableName string, logger *logging.Logger) *JobStore {
	if client == nil {
		panic("media: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("media: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &JobStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// PutPending inserts a new pending job record.
func (s *JobStore) PutPending(ctx context.Context, job *JobRecord) error {
	if job == nil {
		return errors.New("media: job cannot be nil")
	}
	now := time.Now().UTC()
	job.Status = JobStatusPending
	job.CreatedAt = now.Format(time.RFC3339Nano)
	job.UpdatedAt = job.CreatedAt
	if job.ExpiresAt == 0 {
		job.ExpiresAt = now.Add(jobTTL).Unix()
	}

	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("media: failed to marshal job: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(jobId)"),
	})
	if err != nil {
		return fmt.Errorf("media: failed to persist job: %w", err)
	}
	return nil
}

// GetJob fetches a job by ID.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	if jobID == "" {
		return nil, errors.New("media: jobID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"jobId": &types.AttributeValueMemberS{Value: jobID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("media: failed to fetch job: %w", err)
	}
	if out.Item == nil {
		return nil, ErrJobNotFound
	}

	var job JobRecord
	if err := attributevalue.UnmarshalMap(out.Item, &job); err != nil {
		return nil, fmt.Errorf("media: failed to decode job: %w", err)
	}
	return &job, nil
}

// MarkTranscribing moves a job into the transcribing state.
func (s *JobStore) MarkTranscribing(ctx context.Context, jobID string) error {
	return s.setStatus(ctx, jobID, JobStatusTranscribing)
}

// MarkAnalyzing records the transcript and moves the job into analyzing.
func (s *JobStore) MarkAnalyzing(ctx context.Context, jobID, transcript string) error {
	if jobID == "" {
		return errors.New("media: jobID required")
	}
	return s.updateJob(
		ctx,
		jobID,
		map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: string(JobStatusAnalyzing)},
			":transcript": &types.AttributeValueMemberS{Value: transcript},
			":updated":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{
			"#status":     "status",
			"#transcript": "transcript",
			"#updated":    "updatedAt",
		},
		"SET #status = :status, #transcript = :transcript, #updated = :updated",
	)
}

// MarkComplete stores the final verdict and closes the job.
func (s *JobStore) MarkComplete(ctx context.Context, jobID string, result *analysis.Result) error {
	if jobID == "" {
		return errors.New("media: jobID required")
	}
	if result == nil {
		return errors.New("media: result cannot be nil")
	}
	resultAttr, err := attributevalue.Marshal(result)
	if err != nil {
		return fmt.Errorf("media: failed to marshal result: %w", err)
	}

	return s.updateJob(
		ctx,
		jobID,
		map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(JobStatusComplete)},
			":result":  resultAttr,
			":error":   &types.AttributeValueMemberS{Value: ""},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{
			"#status":  "status",
			"#result":  "result",
			"#error":   "errorMessage",
			"#updated": "updatedAt",
		},
		"SET #status = :status, #result = :result, #error = :error, #updated = :updated",
	)
}

// MarkError moves the job to its terminal error state.
func (s *JobStore) MarkError(ctx context.Context, jobID, errMsg string) error {
	if jobID == "" {
		return errors.New("media: jobID required")
	}
	return s.updateJob(
		ctx,
		jobID,
		map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(JobStatusError)},
			":result":  &types.AttributeValueMemberNULL{Value: true},
			":error":   &types.AttributeValueMemberS{Value: errMsg},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{
			"#status":  "status",
			"#result":  "result",
			"#error":   "errorMessage",
			"#updated": "updatedAt",
		},
		"SET #status = :status, #result = :result, #error = :error, #updated = :updated",
	)
}

func (s *JobStore) setStatus(ctx context.Context, jobID string, status JobStatus) error {
	if jobID == "" {
		return errors.New("media: jobID required")
	}
	return s.updateJob(
		ctx,
		jobID,
		map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(status)},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{
			"#status":  "status",
			"#updated": "updatedAt",
		},
		"SET #status = :status, #updated = :updated",
	)
}

func (s *JobStore) updateJob(ctx context.Context, jobID string, values map[string]types.AttributeValue, names map[string]string, expression string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"jobId": &types.AttributeValueMemberS{Value: jobID},
		},
		UpdateExpression:          aws.String(expression),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(jobId)"),
	})
	if err != nil {
		return fmt.Errorf("media: failed to update job %s: %w", jobID, err)
	}
	return nil
}
