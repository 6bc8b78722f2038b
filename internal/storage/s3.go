package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"lifeshare/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the subset of the S3 client used for profile photos.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage handles profile photo uploads to S3
type S3Storage struct {
	client        ObjectAPI
	bucketName    string
	region        string
	publicBaseURL string
}

// NewS3Storage creates a new S3 storage client. When publicBaseURL is empty
// public URLs use the bucket's virtual-hosted address.
func NewS3Storage(client ObjectAPI, bucketName, region, publicBaseURL string) *S3Storage {
	return &S3Storage{
		client:        client,
		bucketName:    bucketName,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload stores the photo under key and returns its public URL
func (s *S3Storage) Upload(ctx context.Context, key string, photo *types.Photo) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(photo.Body),
		ContentType:   aws.String(photo.ContentType),
		ContentLength: aws.Int64(int64(len(photo.Body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w: %w", key, types.ErrBackendUnavailable, err)
	}

	return s.PublicURL(key), nil
}

// Delete removes an object from the bucket
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w: %w", key, types.ErrBackendUnavailable, err)
	}

	return nil
}

// PublicURL returns the public URL for a key
func (s *S3Storage) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key)
}
