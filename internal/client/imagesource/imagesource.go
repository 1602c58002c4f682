// Package imagesource opens the images handed to the upload command. A
// reference is a local file path, an http(s) URL, or an s3://bucket/key URL
// served by an S3-compatible object store.
package imagesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/catlog/internal/netx"
)

var ErrInvalidReference = errors.New("invalid image reference")

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config holds the object store settings. Region, AccessKey and SecretKey
// are required for s3:// references; Endpoint points at a non-AWS store.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	PathStyle bool
}

// Image is an opened image. The caller closes it.
type Image struct {
	Name string
	io.ReadCloser
}

type Opener struct {
	s3cfg S3Config
	http  *http.Client
}

func NewOpener(cfg S3Config) *Opener {
	return &Opener{s3cfg: cfg, http: &http.Client{Timeout: time.Minute}}
}

// Open resolves ref to a readable image.
func (o *Opener) Open(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidReference)
	}
	switch {
	case strings.HasPrefix(ref, "s3://"):
		return o.openS3(ctx, ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return o.openHTTP(ctx, ref)
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return &Image{Name: ref, ReadCloser: f}, nil
}

func (o *Opener) openHTTP(ctx context.Context, ref string) (*Image, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return nil, fmt.Errorf("%w: %q has no file name", ErrInvalidReference, ref)
	}

	body, err := netx.Fetch(ctx, o.http, ref)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	return &Image{Name: name, ReadCloser: body}, nil
}

func parseS3(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs both bucket and key", ErrInvalidReference, ref)
	}
	return bucket, key, nil
}

func (o *Opener) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.s3cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.s3cfg.AccessKey,
			o.s3cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(opts *s3.Options) {
		if o.s3cfg.Endpoint != "" {
			opts.BaseEndpoint = aws.String(o.s3cfg.Endpoint)
		}
		opts.UsePathStyle = o.s3cfg.PathStyle
	}), nil
}

func (o *Opener) openS3(ctx context.Context, ref string) (*Image, error) {
	bucket, key, err := parseS3(ref)
	if err != nil {
		return nil, err
	}

	c, err := o.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s/%s: %w", bucket, key, err)
	}
	return &Image{Name: path.Base(key), ReadCloser: out.Body}, nil
}
