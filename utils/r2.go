// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crdo-backend/engine"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the slice of the S3 API the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ArchiveConfig struct {
	Bucket          string
	Endpoint        string // empty for AWS, https://<account>.r2.cloudflarestorage.com for R2
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// AssessmentArchive stores every risk assessment as one JSON object in an
// S3-compatible bucket (Cloudflare R2 in production).
type AssessmentArchive struct {
	Client ObjectPutter
	Bucket string
}

// archivedAssessment is the object body.
type archivedAssessment struct {
	UserID     string                `json:"userId"`
	RunID      string                `json:"runId,omitempty"`
	AssessedAt time.Time             `json:"assessedAt"`
	Assessment engine.RiskAssessment `json:"assessment"`
}

func NewAssessmentArchive(ctx context.Context, cfg ArchiveConfig) (*AssessmentArchive, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &AssessmentArchive{Client: client, Bucket: cfg.Bucket}, nil
}

// AssessmentKey is assessments/<user>/<run>/<unix-nanos>.json; runs without
// an id land under "adhoc".
func AssessmentKey(userID, runID string, at time.Time) string {
	if runID == "" {
		runID = "adhoc"
	}
	return fmt.Sprintf("assessments/%s/%s/%d.json", userID, runID, at.UTC().UnixNano())
}

func (a *AssessmentArchive) ArchiveAssessment(ctx context.Context, userID, runID string, assessment engine.RiskAssessment, at time.Time) error {
	body, err := json.Marshal(archivedAssessment{
		UserID:     userID,
		RunID:      runID,
		AssessedAt: at.UTC(),
		Assessment: assessment,
	})
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}

	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(AssessmentKey(userID, runID, at)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload assessment: %w", err)
	}
	return nil
}
