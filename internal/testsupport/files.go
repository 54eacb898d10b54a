package testsupport

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"pricingboard/internal/blobstore"
	"pricingboard/internal/config"
)

// NewBlobStore opens the blob store described by cfg.
func NewBlobStore(t testing.TB, cfg *config.Config) *blobstore.Store {
	t.Helper()

	store, err := blobstore.New(cfg.Paths.BlobDir, cfg.Paths.PublicURL, cfg.MaxUploadBytes())
	if err != nil {
		t.Fatalf("blobstore.New: %v", err)
	}
	return store
}

// MustUpload stores content under folder and returns its location.
func MustUpload(t testing.TB, store *blobstore.Store, folder, name, content string) string {
	t.Helper()

	obj, err := store.Upload(context.Background(), folder, name, strings.NewReader(content))
	if err != nil {
		t.Fatalf("blob upload: %v", err)
	}
	return obj.Location
}

// ErrInjected is returned by FlakyBlobs for failing operations.
var ErrInjected = errors.New("injected blob failure")

// FlakyBlobs wraps a blob store, counting calls and failing chosen operations.
type FlakyBlobs struct {
	Inner *blobstore.Store

	mu          sync.Mutex
	FailUpload  bool
	FailDelete  map[string]bool
	Uploads     int
	Deletes     []string
	DeleteCalls int
}

// NewFlakyBlobs wraps inner.
func NewFlakyBlobs(inner *blobstore.Store) *FlakyBlobs {
	return &FlakyBlobs{Inner: inner, FailDelete: make(map[string]bool)}
}

func (f *FlakyBlobs) Upload(ctx context.Context, folder, name string, r io.Reader) (blobstore.Object, error) {
	f.mu.Lock()
	f.Uploads++
	fail := f.FailUpload
	f.mu.Unlock()
	if fail {
		return blobstore.Object{}, ErrInjected
	}
	return f.Inner.Upload(ctx, folder, name, r)
}

func (f *FlakyBlobs) Delete(ctx context.Context, location string) error {
	f.mu.Lock()
	f.DeleteCalls++
	fail := f.FailDelete[location]
	if !fail {
		f.Deletes = append(f.Deletes, location)
	}
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Inner.Delete(ctx, location)
}

func (f *FlakyBlobs) Resolve(location string) (string, error) {
	return f.Inner.Resolve(location)
}

func (f *FlakyBlobs) List(ctx context.Context) ([]blobstore.Entry, error) {
	return f.Inner.List(ctx)
}

// FailDeleteOf makes deletes of location fail.
func (f *FlakyBlobs) FailDeleteOf(location string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailDelete[location] = true
}

// Calls returns the number of upload and delete calls observed.
func (f *FlakyBlobs) Calls() (uploads, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Uploads, f.DeleteCalls
}
