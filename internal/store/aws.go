package store

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/pdup/internal/log"
	"github.com/google/uuid"
	"github.com/samber/do"
)

const DefaultPresignExpiry = 7 * 24 * time.Hour

type S3Uploader struct {
	Client  *s3.Client
	Bucket  string
	Expires time.Duration
}

func NewS3Uploader(i *do.Injector) (Uploader, error) {
	bucket := do.MustInvokeNamed[string](i, "bucket")
	if bucket == "" {
		return nil, fmt.Errorf("s3 backend: no bucket, set --bucket or PDUP_BUCKET")
	}
	return &S3Uploader{
		Client:  do.MustInvoke[*s3.Client](i),
		Bucket:  bucket,
		Expires: DefaultPresignExpiry,
	}, nil
}

// Key places every upload under a random prefix so equal names never collide.
func (u *S3Uploader) Key(name string) string {
	return uuid.NewString() + "/" + path.Base(name)
}

func (u *S3Uploader) Upload(ctx context.Context, params UploadParams) (Result, error) {
	key := u.Key(params.Name)
	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With(
		"key", key,
		"content-type", params.ContentType,
		"bucket", u.Bucket,
	)
	log.Info("uploading to s3")

	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.Bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(params.ContentType),
		ContentLength: aws.Int64(params.Size),
		Body:          params.Body,
		Metadata:      params.Metadata,
		StorageClass:  s3types.StorageClassIntelligentTiering,
	})
	if err != nil {
		return Result{}, err
	}

	url, err := u.Presign(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: key, URL: url}, nil
}

func (u *S3Uploader) Presign(ctx context.Context, key string) (string, error) {
	req, err := s3.NewPresignClient(u.Client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(u.Expires))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
