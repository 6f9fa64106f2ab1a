// Package minio provides a blobstore.Store for MinIO and other
// S3-compatible object stores, for self-hosted deployments that do not
// use the AWS SDK credential chain.
package minio
