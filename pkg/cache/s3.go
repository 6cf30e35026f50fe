package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// metaExpires is the object metadata key carrying the entry expiry.
const metaExpires = "ebb-expires"

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store is a Store backed by an S3 bucket, for sharing cached
// documents across replicas. Expiry rides in object metadata; expired
// objects read as misses and are left for a bucket lifecycle rule to
// collect.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
}

// S3Option configures an S3Store.
type S3Option func(*S3Store)

// WithPrefix sets a key prefix for all cached objects.
func WithPrefix(prefix string) S3Option {
	return func(s *S3Store) { s.prefix = prefix }
}

// NewS3 creates a store writing to the given bucket.
func NewS3(client S3API, bucket string, opts ...S3Option) *S3Store {
	s := &S3Store{
		client: client,
		bucket: bucket,
		prefix: "ebb-cache",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, key)
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer out.Body.Close()

	if exp := out.Metadata[metaExpires]; exp != "" {
		t, perr := time.Parse(time.RFC3339, exp)
		if perr != nil || s.now().After(t) {
			return nil, false, nil
		}
	}

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
	}
	if ttl > 0 {
		in.Metadata = map[string]string{
			metaExpires: s.now().Add(ttl).UTC().Format(time.RFC3339),
		}
	}
	_, err := s.client.PutObject(ctx, in)
	return err
}
