package processor

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer wraps a HuggingFace-compatible tokenizer.json for corpora
// that need subword tokenization instead of whitespace splitting.
type HFTokenizer struct {
	inner *tokenizer.Tokenizer
}

// NewHFTokenizer loads a tokenizer.json file using the pure-Go tokenizer.
func NewHFTokenizer(path string) (*HFTokenizer, error) {
	if path == "" {
		return nil, fmt.Errorf("tokenizer path is required")
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return &HFTokenizer{inner: tk}, nil
}

// Tokenize returns the subword tokens without special-token framing; the
// processor adds its own reserved tokens.
func (t *HFTokenizer) Tokenize(text string) ([]string, error) {
	if t == nil || t.inner == nil {
		return nil, fmt.Errorf("tokenizer is not initialized")
	}
	encoding, err := t.inner.EncodeSingle(text, false)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), encoding.Tokens...), nil
}
