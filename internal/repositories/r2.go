package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

var (
	R2Client     *s3.Client
	R2BucketName string
	R2Endpoint   string
)

// InitR2 initializes the R2 client using static credentials and custom endpoint.
func InitR2(accessKey, secretKey, accountID, bucketName, region string, logger *zap.Logger) error {
	R2BucketName = bucketName
	R2Endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)

	cfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		Region:      region,
	}

	R2Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(R2Endpoint)
		o.UsePathStyle = true
	})

	logger.Info("initialized R2 client", zap.String("bucket", bucketName))

	return nil
}

// R2Store exposes the bucket through the broker's ObjectStore interface.
type R2Store struct{}

// PresignPut creates a presigned upload URL scoped to exactly one key and
// content type. A PUT with a different Content-Type header fails the
// signature check.
func (R2Store) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	presigner := s3.NewPresignClient(R2Client)
	req, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(R2BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignGet creates a presigned download URL. Non-empty disposition and
// responseType override the Content-Disposition and Content-Type headers
// of the eventual GET response.
func (R2Store) PresignGet(ctx context.Context, key, disposition, responseType string, expires time.Duration) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(R2BucketName),
		Key:    aws.String(key),
	}
	if disposition != "" {
		input.ResponseContentDisposition = aws.String(disposition)
	}
	if responseType != "" {
		input.ResponseContentType = aws.String(responseType)
	}

	presigner := s3.NewPresignClient(R2Client)
	req, err := presigner.PresignGetObject(ctx, input, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Delete removes an object. A key that does not exist is treated as
// already deleted.
func (R2Store) Delete(ctx context.Context, key string) error {
	_, err := R2Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(R2BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil
		}
		return err
	}
	return nil
}

// VerifyObjectExists checks if a given object key exists in the R2 bucket.
// Returns true if the object exists, false if not, and an error if something went wrong.
func VerifyObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := R2Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(R2BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NotFound
		if ok := errors.As(err, &nsk); ok {
			// Object not found
			return false, nil
		}
		// Other error (e.g. auth, network)
		return false, err
	}
	return true, nil
}
