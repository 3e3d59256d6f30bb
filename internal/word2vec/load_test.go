package word2vec

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleText = `4 3
the 0.1 0.2 0.3
cat 1.0 0.0 0.0
sat 0.0 1.0 0.0
mat 0.0 0.0 1.0
`

func TestReadTextParsesHeaderAndVectors(t *testing.T) {
	kv, err := ReadText(strings.NewReader(sampleText), LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kv.Len() != 4 {
		t.Fatalf("expected 4 words, got %d", kv.Len())
	}
	if kv.VectorSize() != 3 {
		t.Fatalf("expected vector size 3, got %d", kv.VectorSize())
	}
	vec, ok := kv.Vector("the")
	if !ok {
		t.Fatal("expected vector for \"the\"")
	}
	want := []float32{0.1, 0.2, 0.3}
	for i := range want {
		if math.Abs(float64(vec[i]-want[i])) > 1e-6 {
			t.Fatalf("unexpected vector %v, want %v", vec, want)
		}
	}
	if idx, _ := kv.Index("mat"); idx != 3 {
		t.Fatalf("expected \"mat\" at row 3, got %d", idx)
	}
}

func TestReadTextHonorsLimit(t *testing.T) {
	kv, err := ReadText(strings.NewReader(sampleText), LoadOptions{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kv.Len() != 2 {
		t.Fatalf("expected 2 words, got %d", kv.Len())
	}
	if _, ok := kv.Index("sat"); ok {
		t.Fatal("expected \"sat\" to be skipped by limit")
	}
}

func TestReadTextKeepsFirstDuplicate(t *testing.T) {
	input := "3 2\na 1 2\na 9 9\nb 3 4\n"
	kv, err := ReadText(strings.NewReader(input), LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kv.Len() != 2 {
		t.Fatalf("expected duplicate dropped, got %d words", kv.Len())
	}
	vec, _ := kv.Vector("a")
	if vec[0] != 1 || vec[1] != 2 {
		t.Fatalf("expected first occurrence kept, got %v", vec)
	}
	if idx, _ := kv.Index("b"); idx != 1 {
		t.Fatalf("expected \"b\" at row 1, got %d", idx)
	}
}

func TestReadTextRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"missing header":    "the 0.1 0.2\n",
		"zero count":        "0 3\n",
		"short vector line": "1 3\nthe 0.1 0.2\n",
		"bad float":         "1 2\nthe 0.1 oops\n",
		"truncated file":    "3 2\nthe 0.1 0.2\n",
	}
	for name, input := range cases {
		if _, err := ReadText(strings.NewReader(input), LoadOptions{}); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestReadBinaryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("2 3\n")
	writeBinaryEntry(&buf, "dog", []float32{0.5, -0.25, 2})
	writeBinaryEntry(&buf, "fox", []float32{1, 2, 3})

	kv, err := ReadBinary(&buf, LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kv.Len() != 2 {
		t.Fatalf("expected 2 words, got %d", kv.Len())
	}
	vec, ok := kv.Vector("dog")
	if !ok {
		t.Fatal("expected vector for \"dog\"")
	}
	if vec[0] != 0.5 || vec[1] != -0.25 || vec[2] != 2 {
		t.Fatalf("unexpected vector %v", vec)
	}
}

func TestReadBinaryRejectsTruncatedVector(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("1 3\n")
	buf.WriteString("dog ")
	_ = binary.Write(&buf, binary.LittleEndian, float32(1))

	if _, err := ReadBinary(&buf, LoadOptions{}); err == nil {
		t.Fatal("expected error for truncated vector")
	}
}

func TestLoadDetectsGzipAndBinaryByExtension(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "vectors.txt")
	if err := os.WriteFile(textPath, []byte(sampleText), 0644); err != nil {
		t.Fatalf("write vectors: %v", err)
	}

	var bin bytes.Buffer
	bin.WriteString("1 2\n")
	writeBinaryEntry(&bin, "dog", []float32{1, 2})
	binPath := filepath.Join(dir, "vectors.bin")
	if err := os.WriteFile(binPath, bin.Bytes(), 0644); err != nil {
		t.Fatalf("write binary vectors: %v", err)
	}

	gzPath := filepath.Join(dir, "vectors.txt.gz")
	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	if _, err := gz.Write([]byte(sampleText)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(gzPath, gzBuf.Bytes(), 0644); err != nil {
		t.Fatalf("write gz vectors: %v", err)
	}

	kv, err := Load(textPath, LoadOptions{})
	if err != nil || kv.Len() != 4 {
		t.Fatalf("text load: len=%d err=%v", kv.Len(), err)
	}
	kv, err = Load(binPath, LoadOptions{})
	if err != nil || kv.Len() != 1 {
		t.Fatalf("binary load: err=%v", err)
	}
	kv, err = Load(gzPath, LoadOptions{})
	if err != nil || kv.Len() != 4 {
		t.Fatalf("gzip load: err=%v", err)
	}
}

func TestLoadReportsProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.txt")
	if err := os.WriteFile(path, []byte(sampleText), 0644); err != nil {
		t.Fatalf("write vectors: %v", err)
	}

	var calls int
	var lastTotal int
	_, err := Load(path, LoadOptions{Progress: func(loaded, total int) {
		calls++
		lastTotal = total
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 4 || lastTotal != 4 {
		t.Fatalf("expected 4 progress calls with total 4, got calls=%d total=%d", calls, lastTotal)
	}
}

func writeBinaryEntry(buf *bytes.Buffer, word string, vec []float32) {
	buf.WriteString(word)
	buf.WriteByte(' ')
	_ = binary.Write(buf, binary.LittleEndian, vec)
	buf.WriteByte('\n')
}
