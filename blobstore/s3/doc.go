// Package s3 provides a blobstore.Store backed by Amazon S3 or any
// S3-compatible endpoint reachable through the AWS SDK. Large snapshots
// are uploaded as concurrent multipart uploads with server-side CRC32C
// verification.
package s3
