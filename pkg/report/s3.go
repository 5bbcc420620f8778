package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/transport/http"
	"github.com/go-logr/logr"
	"k8s.io/utils/pointer"
	benchxerrors "kubegems.io/benchx/pkg/errors"
)

type S3Options struct {
	URL       string `json:"url,omitempty"`
	Region    string `json:"region,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty"`
	Attempts  uint   `json:"attempts,omitempty"`
}

func NewDefaultS3Options() *S3Options {
	return &S3Options{
		Bucket:    "benchx",
		Prefix:    "runs",
		PathStyle: true,
		Attempts:  3,
	}
}

// ObjectPutter is the part of the upload manager the uploader needs.
type ObjectPutter interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Uploader struct {
	Bucket   string
	Prefix   string
	Endpoint string
	Attempts uint
	Delay    time.Duration
	Putter   ObjectPutter
}

func NewS3Uploader(ctx context.Context, options *S3Options) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKey, options.SecretKey, ""),
		),
		config.WithRegion(options.Region),
		config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{URL: options.URL}, nil
				},
			),
		),
	)
	if err != nil {
		return nil, err
	}
	s3cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = options.PathStyle
	})
	return &S3Uploader{
		Bucket:   options.Bucket,
		Prefix:   options.Prefix,
		Endpoint: options.URL,
		Attempts: options.Attempts,
		Delay:    time.Second,
		Putter:   manager.NewUploader(s3cli),
	}, nil
}

func (u *S3Uploader) Key(name string) string {
	return path.Join(u.Prefix, name)
}

// Upload puts content under name and returns the object URL. open is called
// once per attempt so every retry starts from the beginning.
func (u *S3Uploader) Upload(ctx context.Context, name string, contentType string, open func() (io.ReadCloser, error)) (string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("bucket", u.Bucket, "key", u.Key(name))

	attempts := u.Attempts
	if attempts == 0 {
		attempts = 1
	}
	var location string
	err := retry.Do(func() error {
		content, err := open()
		if err != nil {
			return retry.Unrecoverable(err)
		}
		defer content.Close()

		out, err := u.Putter.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.Bucket),
			Key:         aws.String(u.Key(name)),
			Body:        content,
			ContentType: aws.String(contentType),
		})
		if err != nil {
			if IsS3StorageNotFound(err) {
				return retry.Unrecoverable(benchxerrors.NewStorageUnknownError(u.Bucket))
			}
			return err
		}
		location = out.Location
		log.V(1).Info("uploaded", "version", pointer.StringDeref(out.VersionID, ""))
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(u.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Info("retrying upload", "attempt", n+1, "error", err.Error())
		}),
	)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", u.Key(name), err)
	}
	if location == "" {
		location = fmt.Sprintf("s3://%s/%s", u.Bucket, u.Key(name))
	}
	return location, nil
}

func IsS3StorageNotFound(err error) bool {
	var apie *http.ResponseError
	if errors.As(err, &apie) {
		return apie.HTTPStatusCode() == 404
	}
	return false
}
