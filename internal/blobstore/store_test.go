package blobstore_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pricingboard/internal/blobstore"
)

func newStore(t *testing.T, maxBytes int64) *blobstore.Store {
	t.Helper()
	store, err := blobstore.New(t.TempDir(), "http://board.local", maxBytes)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestUploadThenOpenRoundTrip(t *testing.T) {
	store := newStore(t, 0)
	ctx := context.Background()

	obj, err := store.Upload(ctx, "raw", "prices.csv", strings.NewReader("sku,price\n1,2\n"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if blobstore.Folder(obj.Location) != "raw" {
		t.Fatalf("expected raw folder, got %q", obj.Location)
	}
	if blobstore.BaseName(obj.Location) != "prices.csv" {
		t.Fatalf("expected file name preserved, got %q", obj.Location)
	}
	if obj.Size != 14 || len(obj.Digest) != 64 {
		t.Fatalf("unexpected object metadata: %+v", obj)
	}

	f, err := store.Open(obj.Location)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "sku,price\n1,2\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestUploadSameContentGetsDistinctLocations(t *testing.T) {
	store := newStore(t, 0)
	ctx := context.Background()
	a, err := store.Upload(ctx, "raw", "a.csv", strings.NewReader("same"))
	if err != nil {
		t.Fatalf("Upload a: %v", err)
	}
	b, err := store.Upload(ctx, "raw", "a.csv", strings.NewReader("same"))
	if err != nil {
		t.Fatalf("Upload b: %v", err)
	}
	if a.Location == b.Location {
		t.Fatal("expected independent locations for separate uploads")
	}
	if a.Digest != b.Digest {
		t.Fatal("expected identical digests for identical content")
	}
	if err := store.Delete(ctx, a.Location); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(b.Location); err != nil {
		t.Fatalf("second upload should survive deletion of the first: %v", err)
	}
}

func TestUploadRejectsOversizedFiles(t *testing.T) {
	store := newStore(t, 4)
	_, err := store.Upload(context.Background(), "raw", "big.bin", strings.NewReader("12345"))
	if !errors.Is(err, blobstore.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no committed blobs, got %v", entries)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newStore(t, 0)
	ctx := context.Background()
	obj, err := store.Upload(ctx, "done", "out.csv", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.Delete(ctx, obj.Location); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := store.Delete(ctx, obj.Location); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), filepath.Dir(obj.Location))); !os.IsNotExist(err) {
		t.Fatalf("expected upload directory removed, stat err=%v", err)
	}
}

func TestInvalidLocationsRejected(t *testing.T) {
	store := newStore(t, 0)
	for _, loc := range []string{"", "../etc/passwd", "/abs/x/y", "raw/../../x", "raw/only", ".tmp/x/y", `raw\x\y`} {
		if err := store.Delete(context.Background(), loc); !errors.Is(err, blobstore.ErrInvalidLocation) {
			t.Fatalf("Delete(%q): expected ErrInvalidLocation, got %v", loc, err)
		}
	}
	if _, err := store.Upload(context.Background(), "../x", "a", strings.NewReader("")); !errors.Is(err, blobstore.ErrInvalidLocation) {
		t.Fatalf("expected invalid folder to be rejected, got %v", err)
	}
}

func TestResolveBuildsEscapedURL(t *testing.T) {
	store := newStore(t, 0)
	obj, err := store.Upload(context.Background(), "pricing", "q3 report.csv", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	got, err := store.Resolve(obj.Location)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(got, "http://board.local/files/pricing/") || !strings.HasSuffix(got, "/q3%20report.csv") {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestListSkipsTempFiles(t *testing.T) {
	store := newStore(t, 0)
	ctx := context.Background()
	if err := os.WriteFile(filepath.Join(store.Root(), ".tmp", "upload-stale"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	obj, err := store.Upload(ctx, "raw", "a.txt", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Location != obj.Location {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"report.csv":            "report.csv",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\data.xlsx`: "data.xlsx",
		"   ":                   "file",
		"bad:name?.csv":         "bad_name_.csv",
		"cafe\u0301.csv":        "caf\u00e9.csv",
	}
	for input, want := range tests {
		if got := blobstore.SanitizeName(input); got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", input, got, want)
		}
	}
}
