// Package storage stores uploaded assets in an S3-compatible backend and
// hands back durable public URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/dkrivenko/marksync/internal/server/config"
)

// test seams
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AssetStore uploads asset blobs to a bucket. Keys are date-partitioned and
// suffixed with a random uuid, so re-uploading the same filename never
// overwrites an earlier object.
type AssetStore struct {
	config *sc.Config
}

func NewAssetStore(config *sc.Config) *AssetStore {
	return &AssetStore{config: config}
}

func makeStorageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("assets/%d/%d/%d/%v-%s", d.Year(), d.Month(), d.Day(), uuid.New(), path.Base(filename))
}

func (s *AssetStore) getClient(ctx context.Context) (s3API, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Put uploads data under a fresh storage key and returns the public URL the
// stored object is reachable at.
func (s *AssetStore) Put(ctx context.Context, filename string, data []byte) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client error: %w", err)
	}

	bucket := s.config.S3Bucket
	key := makeStorageKey(filename)

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put error: %w", err)
	}

	return strings.TrimRight(s.config.AssetBaseURL, "/") + "/" + key, nil
}
