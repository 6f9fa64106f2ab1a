package s3

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// UploadConfig tunes how snapshots are uploaded.
type UploadConfig struct {
	// PartSize is the part size for multipart uploads. Snapshots below
	// this size go up in a single PutObject.
	// Default: 8MB.
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5.
	Concurrency int

	// EnableChecksum makes S3 verify a CRC32C checksum per part.
	// Default: true.
	EnableChecksum bool

	// LeavePartsOnError keeps uploaded parts of a failed multipart
	// upload instead of aborting it.
	// Default: false.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:          8 * 1024 * 1024,
		Concurrency:       5,
		EnableChecksum:    true,
		LeavePartsOnError: false,
	}
}

type uploader struct {
	mgr            *manager.Uploader
	enableChecksum bool
}

func newUploader(client Client, cfg UploadConfig) uploader {
	return uploader{
		mgr: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = cfg.PartSize
			u.Concurrency = cfg.Concurrency
			u.LeavePartsOnError = cfg.LeavePartsOnError
		}),
		enableChecksum: cfg.EnableChecksum,
	}
}

func (u uploader) upload(ctx context.Context, bucket, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if u.enableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	_, err := u.mgr.Upload(ctx, input)
	return err
}
