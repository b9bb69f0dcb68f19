package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

var (
	// ErrInsufficientSpace means the space guard refused the download.
	ErrInsufficientSpace = errors.New("insufficient disk space")
	// ErrChecksumMismatch means the fetched bytes do not hash to the
	// published digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// SpaceGuard is consulted before any bytes are fetched.
type SpaceGuard interface {
	HasEnoughSpace(ctx context.Context, m Model) (bool, error)
}

// Downloader fetches model weights from the Hub into a Store. Downloads are
// resumable: an interrupted fetch leaves a .part file that the next attempt
// continues from.
type Downloader struct {
	store  *Store
	guard  SpaceGuard
	base   string
	token  string
	client *retryablehttp.Client
}

// NewDownloader returns a Downloader writing into store. guard may be nil to
// skip the space check; token may be empty for public repos.
func NewDownloader(store *Store, guard SpaceGuard, token string) *Downloader {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil
	return &Downloader{store: store, guard: guard, base: hubAPI, token: token, client: client}
}

// URL returns the resolve endpoint for m's weights.
func (d *Downloader) URL(m Model) string {
	return fmt.Sprintf("%s/%s/resolve/main/%s?download=true", d.base, m.Repo, m.File)
}

// Download fetches m's weights, verifies the digest when one is known, and
// registers the finished model in the store. progress may be nil.
func (d *Downloader) Download(ctx context.Context, m Model, progress func(Progress)) (Model, error) {
	if m.Repo == "" || m.File == "" {
		return Model{}, fmt.Errorf("model %q has no download source", m.DisplayName())
	}
	if d.guard != nil {
		ok, err := d.guard.HasEnoughSpace(ctx, m)
		if err != nil {
			return Model{}, fmt.Errorf("space check: %w", err)
		}
		if !ok {
			return Model{}, fmt.Errorf("%s: %w", m.DisplayName(), ErrInsufficientSpace)
		}
	}

	dest := filepath.Join(d.store.Dir(), filepath.FromSlash(m.File))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Model{}, err
	}
	part := dest + ".part"

	var offset int64
	sum := sha256.New()
	if fi, err := os.Stat(part); err == nil {
		offset = fi.Size()
		if err := hashFile(part, sum); err != nil {
			return Model{}, fmt.Errorf("resume %s: %w", part, err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", d.URL(m), nil)
	if err != nil {
		return Model{}, err
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Model{}, fmt.Errorf("fetch %s: %w", m.DisplayName(), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the range header. Start over.
		offset = 0
		sum = sha256.New()
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		// The .part already holds every byte.
		return d.finalize(m, part, dest, sum)
	default:
		return Model{}, fmt.Errorf("fetch %s: status %d", m.DisplayName(), resp.StatusCode)
	}

	f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Model{}, err
	}
	if offset == 0 {
		if err := f.Truncate(0); err != nil {
			f.Close()
			return Model{}, err
		}
	} else if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return Model{}, err
	}

	total := m.SizeBytes
	if resp.ContentLength > 0 {
		total = offset + resp.ContentLength
	}
	counter := &progressWriter{received: offset, total: total, emit: progress}

	_, err = io.Copy(io.MultiWriter(f, sum, counter), resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Keep the .part for the next attempt.
		return Model{}, fmt.Errorf("download interrupted: %w", err)
	}
	counter.flush()

	return d.finalize(m, part, dest, sum)
}

func (d *Downloader) finalize(m Model, part, dest string, sum hash.Hash) (Model, error) {
	if m.SHA256 != "" {
		got := hex.EncodeToString(sum.Sum(nil))
		if got != m.SHA256 {
			os.Remove(part)
			return Model{}, fmt.Errorf("%s: got %s, want %s: %w",
				m.DisplayName(), got, m.SHA256, ErrChecksumMismatch)
		}
	}
	if err := os.Rename(part, dest); err != nil {
		return Model{}, err
	}
	fi, err := os.Stat(dest)
	if err != nil {
		return Model{}, err
	}
	m.Downloaded = true
	m.Path = dest
	m.SizeBytes = fi.Size()
	m.Modified = fi.ModTime()
	if err := d.store.Remember(m); err != nil {
		return Model{}, err
	}
	return m, nil
}

func hashFile(path string, sum hash.Hash) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(sum, f)
	return err
}

// progressWriter forwards byte counts to a callback, rate limited so a fast
// local transfer does not spam the UI.
type progressWriter struct {
	received int64
	total    int64
	emit     func(Progress)
	last     time.Time
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.received += int64(len(p))
	if w.emit != nil && time.Since(w.last) >= 100*time.Millisecond {
		w.last = time.Now()
		w.emit(w.snapshot())
	}
	return len(p), nil
}

func (w *progressWriter) flush() {
	if w.emit != nil {
		w.emit(w.snapshot())
	}
}

func (w *progressWriter) snapshot() Progress {
	p := Progress{Received: w.received, Total: w.total}
	if p.Total > 0 {
		p.Percent = float64(p.Received) / float64(p.Total) * 100
	}
	return p
}
