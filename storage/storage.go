// Package storage handles persistence of the subscriber store.
//
// The store is a single JSON document mapping chat IDs to subscribers, read
// and rewritten in full on every mutation. It lives either in a local file
// (development) or in a GCS object (Cloud Run). Callers that mutate the store
// go through Update, which serializes the whole load-modify-save sequence so
// the poll cycle and the command layer never lose each other's writes.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"

	"loe-notifier/pkg/notifier"
)

// objectName is the single store document in the bucket; the same name is
// used for the local file inside the storage directory.
const objectName = "subscribers.json"

// Store persists the subscriber map.
type Store struct {
	client    *gcs.Client
	logger    *slog.Logger
	localPath string
	bucket    string
	mu        sync.Mutex
}

// New creates a storage handler. With a non-empty localPath the store lives
// on the local filesystem; otherwise in the given bucket.
func New(client *gcs.Client, bucket, localPath string, logger *slog.Logger) *Store {
	return &Store{
		client:    client,
		logger:    logger,
		localPath: localPath,
		bucket:    bucket,
	}
}

// Load reads the full subscriber store. A missing document is an empty store.
func (s *Store) Load(ctx context.Context) (notifier.Subscribers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save rewrites the full subscriber store.
func (s *Store) Save(ctx context.Context, subs notifier.Subscribers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, subs)
}

// Update runs fn against a freshly loaded store under the store lock and
// saves the result only when fn reports a change. This is the only safe way
// to mutate the store when the poll cycle and bot commands run concurrently.
func (s *Store) Update(ctx context.Context, fn func(notifier.Subscribers) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load(ctx)
	if err != nil {
		return err
	}

	if !fn(subs) {
		return nil
	}

	return s.save(ctx, subs)
}

func (s *Store) load(ctx context.Context) (notifier.Subscribers, error) {
	var data []byte

	// Local filesystem storage
	if s.localPath != "" {
		var err error
		data, err = os.ReadFile(filepath.Join(s.localPath, objectName))
		if err != nil {
			if os.IsNotExist(err) {
				return notifier.Subscribers{}, nil
			}
			return nil, fmt.Errorf("read from local storage: %w", err)
		}
	} else {
		// Cloud Storage with retry logic for reliability
		var readData []byte
		err := retry.Do(
			func() error {
				r, openErr := s.client.Bucket(s.bucket).Object(objectName).NewReader(ctx)
				if openErr != nil {
					// A missing document is not a failure; don't retry it.
					if errors.Is(openErr, gcs.ErrObjectNotExist) {
						return retry.Unrecoverable(openErr)
					}
					return fmt.Errorf("open storage reader: %w", openErr)
				}
				defer func() {
					if closeErr := r.Close(); closeErr != nil {
						s.logger.Warn("Failed to close storage reader", "error", closeErr)
					}
				}()

				var readErr error
				readData, readErr = io.ReadAll(r)
				if readErr != nil {
					return fmt.Errorf("read from storage: %w", readErr)
				}
				return nil
			},
			retry.Attempts(3),
			retry.Delay(time.Second),
			retry.MaxDelay(30*time.Second),
			retry.MaxJitter(5*time.Second),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, retryErr error) {
				s.logger.Info("Retrying load operation after error", "attempt", n, "error", retryErr)
			}),
		)
		if err != nil {
			if errors.Is(err, gcs.ErrObjectNotExist) {
				return notifier.Subscribers{}, nil
			}
			return nil, fmt.Errorf("load after retries: %w", err)
		}
		data = readData
	}

	var subs notifier.Subscribers
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("unmarshal subscribers: %w", err)
	}
	if subs == nil {
		subs = notifier.Subscribers{}
	}

	return subs, nil
}

func (s *Store) save(ctx context.Context, subs notifier.Subscribers) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal subscribers: %w", err)
	}

	// Local filesystem storage: write-to-temp-then-rename so an interrupted
	// write never corrupts the store.
	if s.localPath != "" {
		filePath := filepath.Join(s.localPath, objectName)
		tmpPath := filePath + ".tmp"
		if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
			return fmt.Errorf("write to local storage: %w", err)
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			return fmt.Errorf("replace local storage file: %w", err)
		}

		s.logger.Info("Subscribers saved to local storage", "path", filePath, "count", len(subs))
		return nil
	}

	// Cloud Storage with retry logic for reliability
	err = retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("Failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			s.logger.Info("Retrying save operation after error", "attempt", n, "error", retryErr)
		}),
	)
	if err != nil {
		return fmt.Errorf("save after retries: %w", err)
	}

	s.logger.Info("Subscribers saved", "bucket", s.bucket, "count", len(subs))
	return nil
}
