package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidLocation indicates a location that escapes the store or is malformed.
	ErrInvalidLocation = errors.New("invalid blob location")
	// ErrTooLarge indicates an upload exceeded the configured size limit.
	ErrTooLarge = errors.New("upload exceeds size limit")
)

const tmpDir = ".tmp"

// Object describes a stored blob.
type Object struct {
	Location string
	Size     int64
	Digest   string
}

// Entry is a blob found while listing the store.
type Entry struct {
	Location string
	Size     int64
	ModTime  time.Time
}

// Store is a filesystem-backed blob store rooted at a directory.
type Store struct {
	root      string
	publicURL string
	maxBytes  int64
}

// New returns a Store rooted at root. publicURL prefixes resolved download
// links; maxBytes <= 0 disables the size limit.
func New(root, publicURL string, maxBytes int64) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, tmpDir), 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root, publicURL: strings.TrimRight(publicURL, "/"), maxBytes: maxBytes}, nil
}

// Root returns the directory backing the store.
func (s *Store) Root() string {
	return s.root
}

// Upload streams r into the store under folder and returns the new object.
func (s *Store) Upload(ctx context.Context, folder, name string, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	folder = strings.TrimSpace(folder)
	if folder == "" || strings.ContainsAny(folder, `/\`) || folder == "." || folder == ".." {
		return Object{}, fmt.Errorf("folder %q: %w", folder, ErrInvalidLocation)
	}
	name = SanitizeName(name)

	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDir), "upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	written, err := io.Copy(io.MultiWriter(tmp, hasher), &ctxReader{ctx: ctx, r: src})
	if err != nil {
		return Object{}, fmt.Errorf("write blob: %w", err)
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		return Object{}, fmt.Errorf("%s: %w (%d bytes)", name, ErrTooLarge, s.maxBytes)
	}
	if err := tmp.Sync(); err != nil {
		return Object{}, fmt.Errorf("sync blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, fmt.Errorf("close blob: %w", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	location := path.Join(folder, digest[:12]+"-"+nonce, name)
	target := filepath.Join(s.root, filepath.FromSlash(location))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return Object{}, fmt.Errorf("commit blob: %w", err)
	}
	committed = true
	return Object{Location: location, Size: written, Digest: digest}, nil
}

// Delete removes the blob at location. A blob that is already gone is not an error.
func (s *Store) Delete(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.pathFor(location)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", location, err)
	}
	// Drop the per-upload directory once empty.
	_ = os.Remove(filepath.Dir(target))
	return nil
}

// Resolve returns a downloadable URL for location.
func (s *Store) Resolve(location string) (string, error) {
	if _, err := s.pathFor(location); err != nil {
		return "", err
	}
	escaped := make([]string, 0, 3)
	for _, part := range strings.Split(location, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return s.publicURL + "/files/" + strings.Join(escaped, "/"), nil
}

// Open returns a reader for the blob at location.
func (s *Store) Open(location string) (*os.File, error) {
	target, err := s.pathFor(location)
	if err != nil {
		return nil, err
	}
	return os.Open(target)
}

// List walks the store and returns every committed blob.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if d.Name() == tmpDir && filepath.Dir(p) == filepath.Clean(s.root) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Location: filepath.ToSlash(rel),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	return entries, nil
}

// Folder returns the folder prefix of a location.
func Folder(location string) string {
	folder, _, _ := strings.Cut(location, "/")
	return folder
}

// BaseName returns the original file name recorded in a location.
func BaseName(location string) string {
	return path.Base(location)
}

func (s *Store) pathFor(location string) (string, error) {
	if location == "" || strings.Contains(location, `\`) || path.IsAbs(location) {
		return "", fmt.Errorf("%q: %w", location, ErrInvalidLocation)
	}
	cleaned := path.Clean(location)
	if cleaned != location || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", fmt.Errorf("%q: %w", location, ErrInvalidLocation)
	}
	if strings.Count(cleaned, "/") != 2 || Folder(cleaned) == tmpDir {
		return "", fmt.Errorf("%q: %w", location, ErrInvalidLocation)
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// SanitizeName reduces a client supplied file name to a safe single path
// element in Unicode NFC form.
func SanitizeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			continue
		case r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ". ")
	if cleaned == "" || cleaned == "/" {
		return "file"
	}
	if len(cleaned) > 200 {
		ext := path.Ext(cleaned)
		if len(ext) > 20 {
			ext = ""
		}
		cut := 200 - len(ext)
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut] + ext
	}
	return cleaned
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
