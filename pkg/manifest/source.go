package manifest

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/route"
)

// Source supplies raw manifest bytes.
type Source interface {
	// Name is the file path or URI. Its extension selects the format.
	Name() string

	// Fetch returns the current manifest contents.
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads a manifest from the local filesystem.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s FileSource) Name() string { return s.Path }

// Fetch implements Source.
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New(errors.ManifestNotFound).Wrap(err).
				WithLocation(s.Path, 0, 0).
				WithSuggestion("Check the --manifest flag or the \"manifest\" field of navroute.json")
		}
		return nil, errors.New(errors.ManifestNotFound).Wrap(err)
	}
	return data, nil
}

// GetObjectAPI is the part of the S3 client used by S3Source.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a manifest object from S3.
type S3Source struct {
	Client GetObjectAPI
	Bucket string
	Key    string
}

// NewS3Source creates a source for an s3://bucket/key URI.
func NewS3Source(client GetObjectAPI, uri string) (*S3Source, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	return &S3Source{Client: client, Bucket: bucket, Key: key}, nil
}

// Name implements Source.
func (s *S3Source) Name() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// Fetch implements Source.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if stderrors.As(err, &missing) {
			return nil, errors.New(errors.ManifestNotFound).Wrap(err).WithLocation(s.Name(), 0, 0)
		}
		return nil, errors.New(errors.ManifestFetch).Wrap(err).WithLocation(s.Name(), 0, 0)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New(errors.ManifestFetch).Wrap(err).WithLocation(s.Name(), 0, 0)
	}
	return data, nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return "", "", errors.New(errors.ManifestFetch).
			Wrap(fmt.Errorf("invalid S3 URI %q", uri)).
			WithExample("s3://my-bucket/routes/site.yaml")
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	client GetObjectAPI
	region string
}

// WithS3Client sets the client for s3:// locations instead of one built
// from the default AWS configuration.
func WithS3Client(client GetObjectAPI) OpenOption {
	return func(c *openConfig) {
		c.client = client
	}
}

// WithRegion sets the AWS region for the default S3 client.
func WithRegion(region string) OpenOption {
	return func(c *openConfig) {
		c.region = region
	}
}

// Open returns a source for a local path or an s3://bucket/key URI.
func Open(ctx context.Context, location string, opts ...OpenOption) (Source, error) {
	if !strings.HasPrefix(location, "s3://") {
		return FileSource{Path: location}, nil
	}

	var c openConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if c.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(c.region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.New(errors.ManifestFetch).Wrap(err).
				WithSuggestion("Configure AWS credentials, e.g. with AWS_PROFILE or AWS_ACCESS_KEY_ID")
		}
		c.client = s3.NewFromConfig(cfg)
	}
	return NewS3Source(c.client, location)
}

// Load fetches, decodes and validates a manifest. Failures are returned as
// coded *errors.Error values pointing into the source.
func Load(ctx context.Context, src Source) (*Manifest, error) {
	format, err := FormatOf(src.Name())
	if err != nil {
		return nil, err
	}
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, errors.FromError(err, errors.ManifestFetch)
	}

	m, err := Decode(data, format)
	if err != nil {
		cerr := errors.New(errors.ManifestParse).Wrap(err)
		var derr *DecodeError
		if stderrors.As(err, &derr) {
			cerr.WithLocation(src.Name(), derr.Line, derr.Column)
		}
		return nil, cerr
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadTree loads a manifest and builds its route tree.
func LoadTree(ctx context.Context, src Source) (*Manifest, *route.Branch[string], error) {
	m, err := Load(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	tree, err := m.Build()
	if err != nil {
		return nil, nil, err
	}
	return m, tree, nil
}
