package word2vec

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDownloadToFileRejectsContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	tmp, err := os.CreateTemp(t.TempDir(), "download-*")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer tmp.Close()

	url := server.URL + "/vectors.txt?token=secret"
	err = downloadToFile(context.Background(), server.Client(), url, tmp, 4)
	if err == nil {
		t.Fatal("expected error for oversized content-length")
	}
	assertNoURLLeak(t, err, url)
}

func TestDownloadToFileRejectsStreamOverflow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		for i := 0; i < 6; i++ {
			_, _ = w.Write([]byte("a"))
		}
	}))
	defer server.Close()

	tmp, err := os.CreateTemp(t.TempDir(), "download-*")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer tmp.Close()

	url := server.URL + "/vectors.txt?token=secret"
	err = downloadToFile(context.Background(), server.Client(), url, tmp, 5)
	if err == nil {
		t.Fatal("expected error for oversized stream")
	}
	assertNoURLLeak(t, err, url)
}

func TestDownloadToFileRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tmp, err := os.CreateTemp(t.TempDir(), "download-*")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer tmp.Close()

	url := server.URL + "/vectors.txt?token=secret"
	err = downloadToFile(context.Background(), server.Client(), url, tmp, 10)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	assertNoURLLeak(t, err, url)
}

func TestEnsureFileWithSHADetectsMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("abc"))
	}))
	defer server.Close()

	url := server.URL + "/vectors.txt?token=secret"
	dest := filepath.Join(t.TempDir(), "vectors.txt")
	err := ensureFileWithSHA(context.Background(), server.Client(), dest, url, "deadbeef", 1024)
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	assertNoURLLeak(t, err, url)
}

func TestEnsureVectorFileDownloadsAndReuses(t *testing.T) {
	content := []byte("3 2\na 1 2\nb 3 4\nc 5 6\n")
	sum := sha256.Sum256(content)

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	spec := VectorSpec{
		ID:     "sample-w2v",
		URL:    server.URL + "/vectors.txt",
		SHA256: hex.EncodeToString(sum[:]),
	}

	path, err := EnsureVectorFile(context.Background(), cacheDir, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("unexpected file contents %q", got)
	}

	if _, err := EnsureVectorFile(context.Background(), cacheDir, spec); err != nil {
		t.Fatalf("unexpected error on reuse: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected cached file to be reused, got %d downloads", hits)
	}
}

func TestEnsureVectorFileRejectsInvalidID(t *testing.T) {
	spec := VectorSpec{ID: "../escape", URL: "http://example.com/v.txt", SHA256: "deadbeef"}
	if _, err := EnsureVectorFile(context.Background(), t.TempDir(), spec); err == nil {
		t.Fatal("expected error for invalid vector ID")
	}
}

func assertNoURLLeak(t *testing.T, err error, rawURL string) {
	t.Helper()
	if err == nil {
		return
	}
	msg := err.Error()
	if strings.Contains(msg, rawURL) {
		t.Fatalf("error leaked full URL: %s", msg)
	}
	if strings.Contains(msg, "token=secret") {
		t.Fatalf("error leaked query string: %s", msg)
	}
}
