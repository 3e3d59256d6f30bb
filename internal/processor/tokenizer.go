package processor

import "strings"

// Tokenizer splits raw text into tokens.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// TokenizerFunc adapts a function into a Tokenizer.
type TokenizerFunc func(text string) ([]string, error)

func (fn TokenizerFunc) Tokenize(text string) ([]string, error) {
	return fn(text)
}

// WhitespaceTokenizer splits on Unicode whitespace. It matches the
// pre-tokenized corpora word vectors are usually trained on.
type WhitespaceTokenizer struct {
	// Lowercase folds tokens to lower case before lookup.
	Lowercase bool
}

func (t WhitespaceTokenizer) Tokenize(text string) ([]string, error) {
	if t.Lowercase {
		text = strings.ToLower(text)
	}
	return strings.Fields(text), nil
}
