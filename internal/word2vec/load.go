package word2vec

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadOptions control how a vector file is parsed. They mirror the knobs of
// the usual word2vec loaders.
type LoadOptions struct {
	// Binary forces the binary format. When false the format is chosen by
	// file extension (".bin" means binary).
	Binary bool
	// Limit reads only the first N words when positive.
	Limit int
	// Progress, when set, is invoked once per loaded word.
	Progress func(loaded, total int)
}

// Load reads a word2vec-format file from disk. Files ending in ".gz" are
// decompressed transparently.
func Load(path string, opts LoadOptions) (*KeyedVectors, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	stripped := path
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
		stripped = strings.TrimSuffix(path, ".gz")
	}

	binaryFormat := opts.Binary || strings.HasSuffix(stripped, ".bin")
	if binaryFormat {
		return ReadBinary(reader, opts)
	}
	return ReadText(reader, opts)
}

// ReadText parses the text word2vec format: a "count dim" header line
// followed by one "word v1 ... vdim" line per word.
func ReadText(r io.Reader, opts LoadOptions) (*KeyedVectors, error) {
	buffered := bufio.NewReader(r)
	count, dim, err := readHeader(buffered)
	if err != nil {
		return nil, err
	}

	kv := newKeyedVectors(count, dim)
	limit := effectiveLimit(count, opts.Limit)
	for loaded := 0; loaded < limit; loaded++ {
		line, err := buffered.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read vector line %d: %w", loaded+1, err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if err == io.EOF {
				return nil, fmt.Errorf("vector file truncated: expected %d words, got %d", limit, loaded)
			}
			loaded--
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != dim+1 {
			return nil, fmt.Errorf("malformed vector line %d: expected %d values, got %d", loaded+1, dim, len(fields)-1)
		}
		vector := make([]float32, dim)
		for i, field := range fields[1:] {
			value, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("malformed vector value on line %d: %w", loaded+1, err)
			}
			vector[i] = float32(value)
		}
		kv.append(fields[0], vector)
		if opts.Progress != nil {
			opts.Progress(loaded+1, limit)
		}
	}
	return kv, nil
}

// ReadBinary parses the binary word2vec format: a "count dim" header line
// followed by the word, a space, and dim little-endian float32 values.
func ReadBinary(r io.Reader, opts LoadOptions) (*KeyedVectors, error) {
	buffered := bufio.NewReader(r)
	count, dim, err := readHeader(buffered)
	if err != nil {
		return nil, err
	}

	kv := newKeyedVectors(count, dim)
	limit := effectiveLimit(count, opts.Limit)
	raw := make([]byte, dim*4)
	for loaded := 0; loaded < limit; loaded++ {
		word, err := readBinaryWord(buffered)
		if err != nil {
			return nil, fmt.Errorf("failed to read word %d: %w", loaded+1, err)
		}
		if _, err := io.ReadFull(buffered, raw); err != nil {
			return nil, fmt.Errorf("failed to read vector for %q: %w", word, err)
		}
		vector := make([]float32, dim)
		for i := range vector {
			vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		kv.append(word, vector)
		if opts.Progress != nil {
			opts.Progress(loaded+1, limit)
		}
	}
	return kv, nil
}

func readHeader(r *bufio.Reader) (count, dim int, err error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, 0, fmt.Errorf("failed to read header: %w", err)
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed header %q: expected \"count dim\"", strings.TrimSpace(line))
	}
	count, err = strconv.Atoi(fields[0])
	if err != nil || count <= 0 {
		return 0, 0, fmt.Errorf("malformed word count %q", fields[0])
	}
	dim, err = strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return 0, 0, fmt.Errorf("malformed vector size %q", fields[1])
	}
	return count, dim, nil
}

func readBinaryWord(r *bufio.Reader) (string, error) {
	var word []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == ' ' {
			break
		}
		// Binary files may separate records with newlines.
		if b == '\n' && len(word) == 0 {
			continue
		}
		word = append(word, b)
	}
	return string(word), nil
}

func effectiveLimit(count, limit int) int {
	if limit > 0 && limit < count {
		return limit
	}
	return count
}

func newKeyedVectors(count, dim int) *KeyedVectors {
	return &KeyedVectors{
		words:   make([]string, 0, count),
		index:   make(map[string]int, count),
		vectors: make([]float32, 0, count*dim),
		dim:     dim,
	}
}

// append adds a word and its vector, keeping the first occurrence when the
// file repeats a word.
func (kv *KeyedVectors) append(word string, vector []float32) {
	if _, exists := kv.index[word]; exists {
		return
	}
	kv.index[word] = len(kv.words)
	kv.words = append(kv.words, word)
	kv.vectors = append(kv.vectors, vector...)
}
