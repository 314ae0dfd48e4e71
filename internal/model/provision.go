package model

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Provisioner makes sure the model artifact is present on local storage
// before the classifier loads it. The first caller performs the work;
// concurrent callers block on the same attempt and share its outcome,
// including failure: a failed provision stays fatal until restart.
type Provisioner struct {
	path   string
	url    string
	client *http.Client

	once sync.Once
	err  error
}

// NewProvisioner returns a provisioner for the artifact at path, optionally
// downloadable from url. An empty url disables downloading.
func NewProvisioner(path, url string) *Provisioner {
	return &Provisioner{
		path: path,
		url:  url,
		client: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// Path returns the local artifact path.
func (p *Provisioner) Path() string {
	return p.path
}

// EnsureReady guarantees the artifact exists at the configured path,
// downloading it on first use when a source URL is configured. Safe for
// concurrent use; the download runs at most once per process.
func (p *Provisioner) EnsureReady() error {
	p.once.Do(func() {
		p.err = p.provision()
		if p.err != nil {
			log.Error().Err(p.err).Str("path", p.path).
				Msg("Model provisioning failed; predictions unavailable until restart")
		}
	})
	return p.err
}

func (p *Provisioner) provision() error {
	if _, err := os.Stat(p.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat model artifact: %w", err)
	}

	if p.url == "" {
		return ErrModelNotConfigured
	}

	log.Info().Str("url", p.url).Str("path", p.path).Msg("Downloading model artifact")
	if err := p.download(); err != nil {
		return fmt.Errorf("%w: %v", ErrModelDownload, err)
	}
	return nil
}

// download fetches the artifact into a sibling .tmp file and renames it into
// place, so a partial download never occupies the final path.
func (p *Provisioner) download() error {
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	req, err := http.NewRequest(http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch: HTTP %d", resp.StatusCode)
	}

	tmpPath := p.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}

	log.Info().Int64("bytes", written).Str("path", p.path).Msg("Model artifact downloaded")
	return nil
}
