package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures an S3-compatible disk (AWS, MinIO, R2, Spaces).
type S3Options struct {
	Bucket   string
	Region   string
	Key      string
	Secret   string
	Endpoint string // empty for AWS
	BaseURL  string // public URL prefix; derived from bucket and region when empty
}

// S3Disk stores objects in one bucket.
type S3Disk struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3 loads AWS configuration and builds the client. Static credentials
// are used when Key and Secret are set, otherwise the default chain.
func NewS3(ctx context.Context, o S3Options) (*S3Disk, error) {
	if o.Bucket == "" {
		return nil, errors.New("storage/s3: S3_BUCKET is not configured")
	}
	if o.Region == "" {
		o.Region = "us-east-1"
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(o.Region)}
	if o.Key != "" && o.Secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.Key, o.Secret, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if o.Endpoint != "" {
		clientOpts = append(clientOpts, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		})
	}

	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.Bucket, o.Region)
	}

	return &S3Disk{client: s3.NewFromConfig(cfg, clientOpts...), bucket: o.Bucket, baseURL: base}, nil
}

func (d *S3Disk) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(k),
		Body:   r,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := d.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("storage/s3: put %s: %w", k, err)
	}
	return nil
}

func (d *S3Disk) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(d.bucket), Key: aws.String(k)})
	if err != nil {
		return nil, fmt.Errorf("storage/s3: get %s: %w", k, err)
	}
	return out.Body, nil
}

func (d *S3Disk) Exists(ctx context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = d.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(d.bucket), Key: aws.String(k)})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("storage/s3: head %s: %w", k, err)
}

func (d *S3Disk) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if _, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(d.bucket), Key: aws.String(k)}); err != nil {
		return fmt.Errorf("storage/s3: delete %s: %w", k, err)
	}
	return nil
}

func (d *S3Disk) URL(key string) string {
	k, _ := cleanKey(key)
	return d.baseURL + "/" + k
}
