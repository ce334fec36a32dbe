package utils

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3Config points the image store at an S3 compatible bucket.
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// ImageStore uploads product images to object storage.
type ImageStore struct {
	client  s3iface.S3API
	bucket  string
	baseURL string
}

func NewImageStore(cfg S3Config) (*ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: empty bucket")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.Endpoint != ""),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "storage: new session")
	}
	return newImageStore(s3.New(sess), cfg), nil
}

func newImageStore(client s3iface.S3API, cfg S3Config) *ImageStore {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &ImageStore{client: client, bucket: cfg.Bucket, baseURL: baseURL}
}

// Upload stores file under folder/fileName and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, folder, fileName, contentType string, file []byte) (string, error) {
	key := path.Join(folder, fileName)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file),
		ContentLength: aws.Int64(int64(len(file))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", errors.Wrapf(err, "storage: put %s", key)
	}

	return s.baseURL + "/" + key, nil
}
