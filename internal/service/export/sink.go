package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"
)

const csvContentType = "text/csv"

// Sink writes one object.
type Sink interface {
	Put(ctx context.Context, dest Destination, body io.Reader) error
}

// Credentials hold object-store settings. Empty fields fall back to each
// SDK's defaults where it has any.
type Credentials struct {
	S3KeyID    string
	S3Secret   string
	S3Endpoint string
	S3Region   string

	GCSKeyFile string

	AzureAccountName string
	AzureAccountKey  string
}

// NewSink returns the sink for the destination's kind.
func NewSink(ctx context.Context, kind Kind, creds Credentials) (Sink, error) {
	switch kind {
	case KindFile:
		return FileSink{}, nil
	case KindS3:
		return NewS3Sink(creds)
	case KindGCS:
		return NewGCSSink(ctx, creds)
	case KindAzure:
		return NewAzureSink(creds)
	default:
		return nil, fmt.Errorf("unsupported destination kind %q", kind)
	}
}

// FileSink writes to the local filesystem. The file is written under a
// temporary name and renamed into place.
type FileSink struct{}

// Put writes body to dest.Key, creating parent directories.
func (FileSink) Put(_ context.Context, dest Destination, body io.Reader) error {
	dir := filepath.Dir(dest.Key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("write %q: %w", dest.Key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dest.Key); err != nil {
		return fmt.Errorf("rename into %q: %w", dest.Key, err)
	}
	return nil
}

// S3Sink uploads to S3 or an S3-compatible store.
type S3Sink struct {
	client *s3.Client
}

// NewS3Sink creates an S3 client. A custom endpoint switches to path-style
// addressing for S3-compatible providers.
func NewS3Sink(creds Credentials) (*S3Sink, error) {
	region := creds.S3Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{Region: region}
	if creds.S3KeyID != "" || creds.S3Secret != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(creds.S3KeyID, creds.S3Secret, "")
	}
	if creds.S3Endpoint != "" {
		endpoint := creds.S3Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return &S3Sink{client: s3.New(opts)}, nil
}

// Put uploads body. PutObject needs a seekable body, so it is buffered.
func (s *S3Sink) Put(ctx context.Context, dest Destination, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read export body: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(dest.Bucket),
		Key:         aws.String(dest.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(csvContentType),
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", dest.String(), err)
	}
	return nil
}

// GCSSink uploads to Google Cloud Storage.
type GCSSink struct {
	client *storage.Client
}

// NewGCSSink creates a GCS client from a service account key file, or from
// application default credentials when none is set.
func NewGCSSink(ctx context.Context, creds Credentials) (*GCSSink, error) {
	var opts []option.ClientOption
	if creds.GCSKeyFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, creds.GCSKeyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSSink{client: client}, nil
}

// Put streams body into the object.
func (s *GCSSink) Put(ctx context.Context, dest Destination, body io.Reader) error {
	w := s.client.Bucket(dest.Bucket).Object(dest.Key).NewWriter(ctx)
	w.ContentType = csvContentType
	if _, err := io.Copy(w, body); err != nil {
		w.Close() //nolint:errcheck,gosec
		return fmt.Errorf("write %q: %w", dest.String(), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %q: %w", dest.String(), err)
	}
	return nil
}

// Close releases the GCS client.
func (s *GCSSink) Close() error {
	return s.client.Close()
}

// AzureSink uploads to Azure Blob Storage with a shared key.
type AzureSink struct {
	client *azblob.Client
}

// NewAzureSink creates an Azure Blob client for the configured account.
func NewAzureSink(creds Credentials) (*AzureSink, error) {
	if creds.AzureAccountName == "" || creds.AzureAccountKey == "" {
		return nil, fmt.Errorf("azure export requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
	}
	cred, err := azblob.NewSharedKeyCredential(creds.AzureAccountName, creds.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", creds.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &AzureSink{client: client}, nil
}

// Put streams body into the blob.
func (s *AzureSink) Put(ctx context.Context, dest Destination, body io.Reader) error {
	if _, err := s.client.UploadStream(ctx, dest.Bucket, dest.Key, body, nil); err != nil {
		return fmt.Errorf("upload %q: %w", dest.String(), err)
	}
	return nil
}
