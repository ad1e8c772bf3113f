package notes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/attested/dossier/internal/storage"
)

// Sink persists one rendered note and returns its location (a path or an
// object key, depending on the backend).
type Sink interface {
	Put(ctx context.Context, filename, content string) (string, error)
	Delete(ctx context.Context, location string) error
}

// DirSink writes notes into a directory on the local filesystem.
type DirSink struct {
	Dir string
}

func (s *DirSink) Put(ctx context.Context, filename, content string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating note directory: %w", err)
	}
	path := filepath.Join(s.Dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing note: %w", err)
	}
	return path, nil
}

func (s *DirSink) Delete(ctx context.Context, location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}

// S3Sink stores notes as objects under a key prefix.
type S3Sink struct {
	Client *s3.Client
	Prefix string
}

func (s *S3Sink) Put(ctx context.Context, filename, content string) (string, error) {
	key := filename
	if s.Prefix != "" {
		key = s.Prefix + "/" + filename
	}
	if err := storage.PutNote(ctx, s.Client, key, []byte(content)); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Sink) Delete(ctx context.Context, location string) error {
	return storage.DeleteNote(ctx, s.Client, location)
}
