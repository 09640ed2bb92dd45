package source

import (
	"context"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fvbommel/sortorder"
	"github.com/pkg/errors"

	"github.com/dlscope/dlscope/internal/datasource"
)

// S3API is the slice of the S3 client the backend uses. Narrowed to an
// interface so tests can substitute a fake.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 is an indexed backend over the objects under an S3 prefix, ordered by
// natural sort of their keys.
type S3 struct {
	client  S3API
	bucket  string
	prefix  string
	region  string
	profile string
	keys    []string
}

// S3Option configures the S3 backend.
type S3Option func(*S3)

// WithS3Client injects a preconfigured client instead of loading the
// default AWS configuration on prepare.
func WithS3Client(client S3API) S3Option {
	return func(s *S3) { s.client = client }
}

// WithS3Region pins the AWS region.
func WithS3Region(region string) S3Option {
	return func(s *S3) { s.region = region }
}

// WithS3Profile selects a shared-config credentials profile.
func WithS3Profile(profile string) S3Option {
	return func(s *S3) { s.profile = profile }
}

// NewS3 creates an S3 backend over bucket/prefix.
func NewS3(bucket, prefix string, opts ...S3Option) *S3 {
	s := &S3{bucket: bucket, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind implements datasource.Backend.
func (s *S3) Kind() string { return "s3" }

// PrepareData builds the client when none was injected and lists all object
// keys under the prefix.
func (s *S3) PrepareData(ctx context.Context) error {
	if s.client == nil {
		var optFns []func(*awsconfig.LoadOptions) error
		if s.region != "" {
			optFns = append(optFns, awsconfig.WithRegion(s.region))
		}
		if s.profile != "" {
			optFns = append(optFns, awsconfig.WithSharedConfigProfile(s.profile))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return errors.Wrap(err, "loading AWS config")
		}
		s.client = s3.NewFromConfig(cfg)
	}

	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return errors.Wrapf(err, "listing s3://%s/%s", s.bucket, s.prefix)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			// Folder markers carry no data.
			if key == "" || key[len(key)-1] == '/' {
				continue
			}
			keys = append(keys, key)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	sort.Slice(keys, func(i, j int) bool {
		return sortorder.NaturalLess(keys[i], keys[j])
	})
	s.keys = keys
	return nil
}

// UnprepareData drops the key listing; the client is kept for re-prepare.
func (s *S3) UnprepareData() error {
	s.keys = nil
	return nil
}

// Len implements datasource.IndexedBackend.
func (s *S3) Len() int { return len(s.keys) }

// FetchIndex downloads the object at the given position.
func (s *S3) FetchIndex(ctx context.Context, index int) (datasource.Datapoint, error) {
	key := s.keys[index]
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return datasource.Datapoint{}, errors.Wrapf(err, "getting s3://%s/%s", s.bucket, key)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return datasource.Datapoint{}, errors.Wrapf(err, "reading s3://%s/%s", s.bucket, key)
	}
	return datasource.Datapoint{Bytes: data, Name: key}, nil
}
