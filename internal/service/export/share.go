package export

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxShareTTL is the longest share link lifetime; S3 SigV4 caps presigned
// URLs at seven days.
const MaxShareTTL = 7 * 24 * time.Hour

// Sharer hands out time-limited read links for objects a sink wrote.
type Sharer interface {
	ShareURL(ctx context.Context, dest Destination, ttl time.Duration) (string, error)
}

var (
	_ Sharer = (*S3Sink)(nil)
	_ Sharer = (*GCSSink)(nil)
	_ Sharer = (*AzureSink)(nil)
)

// ShareURL presigns a GET for the object.
func (s *S3Sink) ShareURL(ctx context.Context, dest Destination, ttl time.Duration) (string, error) {
	req, err := s3.NewPresignClient(s.client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(dest.Bucket),
		Key:    aws.String(dest.Key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", dest.String(), err)
	}
	return req.URL, nil
}

// ShareURL signs a GET for the object. Signing needs a service account key
// file or credentials that can sign blobs.
func (s *GCSSink) ShareURL(_ context.Context, dest Destination, ttl time.Duration) (string, error) {
	u, err := s.client.Bucket(dest.Bucket).SignedURL(dest.Key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign %q: %w", dest.String(), err)
	}
	return u, nil
}

// ShareURL issues a read-only SAS link for the blob.
func (s *AzureSink) ShareURL(_ context.Context, dest Destination, ttl time.Duration) (string, error) {
	blob := s.client.ServiceClient().NewContainerClient(dest.Bucket).NewBlobClient(dest.Key)
	u, err := blob.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(ttl), nil)
	if err != nil {
		return "", fmt.Errorf("generate SAS URL for %q: %w", dest.String(), err)
	}
	return u, nil
}

// ValidateShareTTL rejects lifetimes the object stores will not sign.
func ValidateShareTTL(ttl time.Duration) error {
	if ttl < 0 || ttl > MaxShareTTL {
		return fmt.Errorf("share link lifetime must be between 0 and %s, got %s", MaxShareTTL, ttl)
	}
	return nil
}
