// Package publish uploads generated report files to object storage.
package publish

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Publisher makes report files available outside the local machine.
type Publisher interface {
	// Publish uploads files and returns their remote locations.
	Publish(ctx context.Context, runID string, files []string) ([]string, error)
}

// NoopPublisher is used when publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []string) ([]string, error) { return nil, nil }

// Uploader is the part of manager.Uploader used here.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Publisher uploads files to an S3 bucket under prefix/runID/.
type S3Publisher struct {
	Bucket   string
	Prefix   string
	uploader Uploader
	log      zerolog.Logger
}

// NewS3Publisher creates an S3 publisher using the default AWS credential chain.
func NewS3Publisher(ctx context.Context, bucket, prefix, region string, log zerolog.Logger) (*S3Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3PublisherWithUploader(bucket, prefix, manager.NewUploader(s3.NewFromConfig(cfg)), log), nil
}

// NewS3PublisherWithUploader creates an S3 publisher around an existing uploader.
func NewS3PublisherWithUploader(bucket, prefix string, up Uploader, log zerolog.Logger) *S3Publisher {
	return &S3Publisher{
		Bucket:   bucket,
		Prefix:   strings.Trim(prefix, "/"),
		uploader: up,
		log:      log.With().Str("component", "publish").Logger(),
	}
}

// Key returns the object key of file for a run.
func (p *S3Publisher) Key(runID, file string) string {
	return path.Join(p.Prefix, runID, filepath.Base(file))
}

// Publish uploads every file. It stops at the first failure.
func (p *S3Publisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	var locations []string
	for _, file := range files {
		loc, err := p.upload(ctx, runID, file)
		if err != nil {
			return locations, fmt.Errorf("upload %s: %w", filepath.Base(file), err)
		}
		p.log.Info().Str("file", file).Str("location", loc).Msg("report published")
		locations = append(locations, loc)
	}
	return locations, nil
}

func (p *S3Publisher) upload(ctx context.Context, runID, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := p.Key(runID, file)
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.Bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := contentType(file); ct != "" {
		input.ContentType = aws.String(ct)
	}
	out, err := p.uploader.Upload(ctx, input)
	if err != nil {
		return "", err
	}
	if out != nil && out.Location != "" {
		return out.Location, nil
	}
	return "s3://" + p.Bucket + "/" + key, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".md":
		return "text/markdown; charset=utf-8"
	}
	return mime.TypeByExtension(filepath.Ext(file))
}
