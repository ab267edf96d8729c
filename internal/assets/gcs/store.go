// Package gcs stores token images and metadata documents in a Google Cloud
// Storage bucket with public read access.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// DefaultPublicBaseURL is the public host of GCS objects.
const DefaultPublicBaseURL = "https://storage.googleapis.com"

// Options configures a Store.
type Options struct {
	Bucket          string
	Prefix          string // optional key prefix inside the bucket
	CredentialsFile string // empty uses application default credentials
	Endpoint        string // overrides the API endpoint, unauthenticated
	PublicBaseURL   string // defaults to DefaultPublicBaseURL/<bucket>
	CacheControl    string
}

// Store implements the asset and metadata stores on one bucket.
type Store struct {
	client       *storage.Client
	bucket       *storage.BucketHandle
	prefix       string
	publicBase   string
	cacheControl string
}

// New creates a Store and its storage client.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("gcs: bucket not set")
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts,
			option.WithEndpoint(opts.Endpoint),
			option.WithoutAuthentication(),
		)
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create storage client: %w", err)
	}

	publicBase := opts.PublicBaseURL
	if publicBase == "" {
		publicBase = DefaultPublicBaseURL + "/" + opts.Bucket
	}
	cacheControl := opts.CacheControl
	if cacheControl == "" {
		cacheControl = "public, max-age=31536000, immutable"
	}

	return &Store{
		client:       client,
		bucket:       client.Bucket(opts.Bucket),
		prefix:       strings.Trim(opts.Prefix, "/"),
		publicBase:   strings.TrimRight(publicBase, "/"),
		cacheControl: cacheControl,
	}, nil
}

// Close closes the storage client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Upload writes data to key and returns its public URI.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return s.write(ctx, key, data, contentType)
}

// Publish writes a JSON document to key and returns its public URI.
func (s *Store) Publish(ctx context.Context, key string, document []byte) (string, error) {
	return s.write(ctx, key, document, "application/json")
}

func (s *Store) write(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	name := s.objectName(key)

	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = s.cacheControl

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write %s: %w", name, err)
	}
	// The object is only committed by Close
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: commit %s: %w", name, err)
	}
	return s.publicBase + "/" + name, nil
}

func (s *Store) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}
