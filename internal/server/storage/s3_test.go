package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/dkrivenko/marksync/internal/server/config"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "assets",
		AssetBaseURL:   "http://127.0.0.1:9000/assets/",
	}
}

type fakeS3 struct {
	input  *s3.PutObjectInput
	putErr error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.input = params
	return &s3.PutObjectOutput{}, nil
}

func withFakeClient(t *testing.T, fake *fakeS3, loadErr error) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		if loadErr != nil {
			return aws.Config{}, loadErr
		}
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("base endpoint not applied: %v", opts.BaseEndpoint)
		}
		if !opts.UsePathStyle {
			t.Fatalf("path-style addressing must be on for minio")
		}
		return fake
	}
}

func TestPut_UploadsAndReturnsURL(t *testing.T) {
	fake := &fakeS3{}
	withFakeClient(t, fake, nil)

	store := NewAssetStore(testConfig())
	url, err := store.Put(context.Background(), "map.jpg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if fake.input == nil || *fake.input.Bucket != "assets" {
		t.Fatalf("unexpected put input: %+v", fake.input)
	}
	body, err := io.ReadAll(fake.input.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != "\xff\xd8" {
		t.Fatalf("unexpected body: %x", body)
	}

	keyRe := regexp.MustCompile(`^assets/\d{4}/\d{1,2}/\d{1,2}/[0-9a-f-]{36}-map\.jpg$`)
	if !keyRe.MatchString(*fake.input.Key) {
		t.Fatalf("unexpected storage key: %q", *fake.input.Key)
	}
	if !strings.HasPrefix(url, "http://127.0.0.1:9000/assets/assets/") {
		t.Fatalf("unexpected url: %q", url)
	}
	if !strings.HasSuffix(url, "-map.jpg") {
		t.Fatalf("url must end with the object key: %q", url)
	}
}

func TestPut_StripsDirectoryFromFilename(t *testing.T) {
	fake := &fakeS3{}
	withFakeClient(t, fake, nil)

	store := NewAssetStore(testConfig())
	if _, err := store.Put(context.Background(), "../../etc/passwd", []byte{1}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if strings.Contains(*fake.input.Key, "..") {
		t.Fatalf("key must not carry path traversal: %q", *fake.input.Key)
	}
	if !strings.HasSuffix(*fake.input.Key, "-passwd") {
		t.Fatalf("key must keep only the base name: %q", *fake.input.Key)
	}
}

func TestPut_ClientError(t *testing.T) {
	withFakeClient(t, &fakeS3{}, errors.New("no creds"))

	store := NewAssetStore(testConfig())
	_, err := store.Put(context.Background(), "x.jpg", []byte{1})
	if err == nil || !strings.Contains(err.Error(), "s3 client error") {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestPut_UploadError(t *testing.T) {
	withFakeClient(t, &fakeS3{putErr: errors.New("bucket gone")}, nil)

	store := NewAssetStore(testConfig())
	_, err := store.Put(context.Background(), "x.jpg", []byte{1})
	if err == nil || !strings.Contains(err.Error(), "s3 put error") {
		t.Fatalf("expected wrapped put error, got %v", err)
	}
}
