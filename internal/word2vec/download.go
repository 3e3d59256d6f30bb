package word2vec

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMaxVectorBytes caps downloaded vector files at 8 GiB.
const DefaultMaxVectorBytes = 8 << 30

// VectorSpec describes a downloadable pre-trained vector file.
type VectorSpec struct {
	ID     string
	URL    string
	SHA256 string
	// MaxBytes caps the download size; DefaultMaxVectorBytes when zero.
	MaxBytes int64
}

// EnsureVectorFile downloads and verifies the vector file into the cache
// dir, returning its local path. Already-verified files are reused.
func EnsureVectorFile(ctx context.Context, cacheDir string, spec VectorSpec) (string, error) {
	if strings.TrimSpace(spec.URL) == "" || strings.TrimSpace(spec.SHA256) == "" {
		return "", fmt.Errorf("vector URL and SHA256 are required")
	}

	name, err := vectorFileName(spec.URL)
	if err != nil {
		return "", err
	}
	dir, err := VectorDir(cacheDir, spec.ID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create vector dir: %w", err)
	}

	maxBytes := spec.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxVectorBytes
	}

	dest := filepath.Join(dir, name)
	client := &http.Client{Timeout: 10 * time.Minute}
	if err := ensureFileWithSHA(ctx, client, dest, spec.URL, spec.SHA256, maxBytes); err != nil {
		return "", err
	}
	return dest, nil
}

func vectorFileName(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid vector URL: %w", err)
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("vector URL has no file name")
	}
	return name, nil
}

func ensureFileWithSHA(ctx context.Context, client *http.Client, dest, rawURL, expectedSHA string, maxBytes int64) error {
	if ok, err := fileMatchesSHA256(dest, expectedSHA); err != nil {
		return err
	} else if ok {
		return nil
	}

	tmpPath := dest + ".tmp"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := downloadToFile(ctx, client, rawURL, tmp, maxBytes); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finish download: %w", err)
	}

	ok, err := fileMatchesSHA256(tmpPath, expectedSHA)
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if !ok {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("checksum mismatch for %s", filepath.Base(dest))
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	return nil
}

// downloadToFile streams the URL body into out, enforcing maxBytes. Errors
// never carry the full URL so credentials in query strings cannot leak.
func downloadToFile(ctx context.Context, client *http.Client, rawURL string, out io.Writer, maxBytes int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", redactURL(rawURL), err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", redactURL(rawURL), redactError(err, rawURL))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, redactURL(rawURL))
	}
	if resp.ContentLength > maxBytes {
		return fmt.Errorf("download from %s exceeds %d byte limit", redactURL(rawURL), maxBytes)
	}

	written, err := io.Copy(out, io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return fmt.Errorf("failed to stream %s: %w", redactURL(rawURL), redactError(err, rawURL))
	}
	if written > maxBytes {
		return fmt.Errorf("download from %s exceeds %d byte limit", redactURL(rawURL), maxBytes)
	}
	return nil
}

// redactURL strips the query string and userinfo from a URL for error
// messages.
func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.User = nil
	return parsed.Redacted()
}

// redactError hides the raw URL that net/http embeds in its errors.
func redactError(err error, rawURL string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, rawURL) {
		return fmt.Errorf("%s", strings.ReplaceAll(msg, rawURL, redactURL(rawURL)))
	}
	if parsed, perr := url.Parse(rawURL); perr == nil && parsed.RawQuery != "" && strings.Contains(msg, parsed.RawQuery) {
		return fmt.Errorf("%s", strings.ReplaceAll(msg, parsed.RawQuery, "<redacted>"))
	}
	return err
}

func fileMatchesSHA256(path, expected string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return false, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	sum := hex.EncodeToString(hash.Sum(nil))
	return strings.EqualFold(sum, strings.TrimSpace(expected)), nil
}
