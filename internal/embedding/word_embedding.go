package embedding

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/fractalmind-ai/labelkit/internal/graph"
	"github.com/fractalmind-ai/labelkit/internal/processor"
	"github.com/fractalmind-ai/labelkit/internal/word2vec"
)

// topWordCount is how many leading vocabulary words are kept for logging
// and status reporting.
const topWordCount = 50

// WordEmbedding adapts a pre-trained word2vec table into a frozen
// embedding model. It builds a vocabulary with the reserved tokens in
// front, places the loaded vectors after the reserved rows, and assembles
// one input/embedding branch per configured sequence length.
type WordEmbedding struct {
	vectorPath string
	loadOpts   word2vec.LoadOptions
	seqLen     SequenceLength
	proc       *processor.Processor
	tokenizer  processor.Tokenizer

	vectors       *word2vec.KeyedVectors
	matrix        *graph.Tensor
	model         *graph.Model
	embeddingSize int
	topWords      []string
	branchLengths []int
	loaded        bool
}

// Option configures a WordEmbedding.
type Option func(*WordEmbedding)

// WithSequenceLength sets the input length configuration.
func WithSequenceLength(s SequenceLength) Option {
	return func(e *WordEmbedding) { e.seqLen = s }
}

// WithProcessor attaches an existing corpus processor. Its token maps are
// overwritten once the vectors load.
func WithProcessor(p *processor.Processor) Option {
	return func(e *WordEmbedding) { e.proc = p }
}

// WithLoadOptions passes options through to the word2vec loader.
func WithLoadOptions(opts word2vec.LoadOptions) Option {
	return func(e *WordEmbedding) { e.loadOpts = opts }
}

// WithTokenizer sets the tokenizer used by Embed for raw texts.
func WithTokenizer(t processor.Tokenizer) Option {
	return func(e *WordEmbedding) { e.tokenizer = t }
}

// NewWordEmbedding creates the adapter for a word2vec-format file. The
// vectors load lazily: on the first AnalyzeCorpus or an explicit
// LoadVectors call.
func NewWordEmbedding(vectorPath string, opts ...Option) (*WordEmbedding, error) {
	if vectorPath == "" {
		return nil, fmt.Errorf("vector path is required")
	}
	e := &WordEmbedding{
		vectorPath: vectorPath,
		seqLen:     AutoLength(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.seqLen.Validate(); err != nil {
		return nil, err
	}
	if e.proc == nil {
		e.proc = processor.New()
	}
	if e.tokenizer == nil {
		e.tokenizer = processor.WhitespaceTokenizer{}
	}

	switch {
	case e.seqLen.Variable:
		e.branchLengths = []int{graph.VariableLength}
	case len(e.seqLen.Lengths) > 0:
		e.branchLengths = append([]int(nil), e.seqLen.Lengths...)
	}
	return e, nil
}

// LoadVectors reads the word2vec file and aligns the vocabulary: reserved
// tokens take rows 0-3, the UNK row gets random values, loaded vectors
// fill the rows after. Loading twice is a no-op.
func (e *WordEmbedding) LoadVectors() error {
	if e == nil {
		return fmt.Errorf("embedding is nil")
	}
	if e.loaded {
		return nil
	}
	kv, err := word2vec.Load(e.vectorPath, e.loadOpts)
	if err != nil {
		return fmt.Errorf("failed to load vectors: %w", err)
	}
	if err := e.buildVocabulary(kv); err != nil {
		return err
	}
	e.loaded = true

	log.Printf("loaded word2vec vectors from %s: words=%d dim=%d vocab=%d",
		e.vectorPath, kv.Len(), kv.VectorSize(), e.TokenCount())
	log.Printf("top %d words: %v", len(e.topWords), e.topWords)
	return nil
}

func (e *WordEmbedding) buildVocabulary(kv *word2vec.KeyedVectors) error {
	dim := kv.VectorSize()
	if dim == 0 || kv.Len() == 0 {
		return fmt.Errorf("vector table is empty")
	}

	token2idx := make(map[string]int, kv.Len()+processor.NumReservedTokens)
	for idx, token := range processor.ReservedTokens() {
		token2idx[token] = idx
	}

	// Words colliding with a reserved token keep the reserved row and do
	// not consume a matrix row.
	kept := make([]int, 0, kv.Len())
	for i, word := range kv.Words() {
		if _, exists := token2idx[word]; exists {
			continue
		}
		token2idx[word] = len(token2idx)
		kept = append(kept, i)
	}

	matrix, err := graph.NewTensor(processor.NumReservedTokens+len(kept), dim)
	if err != nil {
		return err
	}
	unkRow := matrix.Data[dim : 2*dim]
	for i := range unkRow {
		unkRow[i] = rand.Float32()
	}
	for j, i := range kept {
		row, err := kv.Row(i)
		if err != nil {
			return err
		}
		copy(matrix.Data[(processor.NumReservedTokens+j)*dim:], row)
	}

	words := kv.Words()
	top := topWordCount
	if top > len(words) {
		top = len(words)
	}

	e.vectors = kv
	e.matrix = matrix
	e.embeddingSize = dim
	e.topWords = append([]string(nil), words[:top]...)
	e.proc.SetVocabulary(token2idx)
	return nil
}

// AnalyzeCorpus prepares the embedding for a single-branch labeling task.
func (e *WordEmbedding) AnalyzeCorpus(x [][]string, y []string) error {
	return e.AnalyzeMultiCorpus([][][]string{x}, y)
}

// AnalyzeMultiCorpus prepares the embedding for a task with one corpus per
// input branch: it loads the vectors if needed, records corpus statistics,
// resolves auto sequence lengths, and builds the model.
func (e *WordEmbedding) AnalyzeMultiCorpus(xs [][][]string, y []string) error {
	if e == nil {
		return fmt.Errorf("embedding is nil")
	}
	if err := e.LoadVectors(); err != nil {
		return err
	}
	if len(e.branchLengths) > 0 && len(xs) != len(e.branchLengths) {
		return fmt.Errorf("got %d corpora for %d input branches", len(xs), len(e.branchLengths))
	}
	if err := e.proc.AnalyzeCorpus(xs, y); err != nil {
		return err
	}
	if e.seqLen.Auto {
		e.branchLengths = append([]int(nil), e.proc.BranchLengths()...)
	}
	return e.BuildModel()
}

// BuildModel assembles the input/embedding branches and their
// concatenation. Requires loaded vectors and resolved sequence lengths.
func (e *WordEmbedding) BuildModel() error {
	if e == nil {
		return fmt.Errorf("embedding is nil")
	}
	if !e.loaded {
		return fmt.Errorf("vectors are not loaded")
	}
	if len(e.branchLengths) == 0 {
		return fmt.Errorf("auto sequence length needs AnalyzeCorpus first")
	}

	inputs := make([]*graph.Input, len(e.branchLengths))
	branches := make([]*graph.Embedding, len(e.branchLengths))
	for i, length := range e.branchLengths {
		inputs[i] = &graph.Input{Name: fmt.Sprintf("input_%d", i), Length: length}
		branch, err := graph.NewEmbedding(fmt.Sprintf("layer_embedding_%d", i), e.matrix, false)
		if err != nil {
			return err
		}
		branches[i] = branch
	}
	model, err := graph.NewModel(inputs, branches)
	if err != nil {
		return err
	}
	e.model = model
	return nil
}

// VectorPath returns the path of the backing word2vec file.
func (e *WordEmbedding) VectorPath() string {
	if e == nil {
		return ""
	}
	return e.vectorPath
}

// Model returns the assembled embedding model, or nil before BuildModel.
func (e *WordEmbedding) Model() *graph.Model {
	if e == nil {
		return nil
	}
	return e.model
}

// Processor returns the attached corpus processor.
func (e *WordEmbedding) Processor() *processor.Processor {
	if e == nil {
		return nil
	}
	return e.proc
}

// EmbeddingSize returns the vector dimensionality, 0 before loading.
func (e *WordEmbedding) EmbeddingSize() int {
	if e == nil {
		return 0
	}
	return e.embeddingSize
}

// TokenCount returns the vocabulary size including reserved tokens.
func (e *WordEmbedding) TokenCount() int {
	if e == nil || e.matrix == nil {
		return 0
	}
	return e.matrix.Shape[0]
}

// TopWords returns the leading words of the loaded table.
func (e *WordEmbedding) TopWords() []string {
	if e == nil {
		return nil
	}
	return e.topWords
}

// BranchLengths returns the resolved per-branch sequence lengths.
func (e *WordEmbedding) BranchLengths() []int {
	if e == nil {
		return nil
	}
	return e.branchLengths
}

// LookupTokens maps tokens to their vocabulary indices, with UNK standing
// in for unknown tokens.
func (e *WordEmbedding) LookupTokens(tokens []string) ([]int, error) {
	if e == nil || !e.loaded {
		return nil, fmt.Errorf("vectors are not loaded")
	}
	unkIdx := e.proc.Token2Idx[processor.TokenUnk]
	indices := make([]int, len(tokens))
	for i, token := range tokens {
		idx, ok := e.proc.Token2Idx[token]
		if !ok {
			idx = unkIdx
		}
		indices[i] = idx
	}
	return indices, nil
}

// MostSimilar queries the loaded vector table for the nearest neighbors of
// a word.
func (e *WordEmbedding) MostSimilar(word string, topN int) ([]word2vec.Neighbor, error) {
	if e == nil || e.vectors == nil {
		return nil, fmt.Errorf("vectors are not loaded")
	}
	return e.vectors.MostSimilar(word, topN)
}

// EmbedSequences numerizes one tokenized batch per input branch and runs
// the model, returning the [batch, seq, dim] output tensor.
func (e *WordEmbedding) EmbedSequences(batches ...[][]string) (*graph.Tensor, error) {
	idBatches, _, err := e.numerizeBranches(batches)
	if err != nil {
		return nil, err
	}
	return e.model.Forward(idBatches...)
}

// Embed tokenizes each text, feeds it to every input branch, and returns
// one mean-pooled vector per text. PAD positions are excluded from the
// pool.
func (e *WordEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e == nil {
		return nil, fmt.Errorf("embedding is nil")
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}

	sequences := make([][]string, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokens, err := e.tokenizer.Tokenize(text)
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize text %d: %w", i, err)
		}
		sequences[i] = tokens
	}

	batches := make([][][]string, len(e.branchLengths))
	for i := range batches {
		batches[i] = sequences
	}
	idBatches, padIdx, err := e.numerizeBranches(batches)
	if err != nil {
		return nil, err
	}
	out, err := e.model.Forward(idBatches...)
	if err != nil {
		return nil, err
	}
	return meanPool(out, idBatches, padIdx)
}

func (e *WordEmbedding) numerizeBranches(batches [][][]string) ([][][]int, int, error) {
	if e == nil || e.model == nil {
		return nil, 0, fmt.Errorf("model is not built")
	}
	if len(batches) != len(e.branchLengths) {
		return nil, 0, fmt.Errorf("got %d batches for %d input branches", len(batches), len(e.branchLengths))
	}
	padIdx, ok := e.proc.Token2Idx[processor.TokenPad]
	if !ok {
		return nil, 0, fmt.Errorf("vocabulary is missing %s", processor.TokenPad)
	}

	idBatches := make([][][]int, len(batches))
	for i, batch := range batches {
		ids, err := e.proc.NumerizeSequences(batch, e.branchLengths[i])
		if err != nil {
			return nil, 0, fmt.Errorf("input branch %d: %w", i, err)
		}
		idBatches[i] = ids
	}
	return idBatches, padIdx, nil
}

// meanPool averages the non-PAD positions of the concatenated model
// output. A text of only PAD positions pools to the zero vector.
func meanPool(out *graph.Tensor, idBatches [][][]int, padIdx int) ([][]float32, error) {
	batch, dim := out.Shape[0], out.Shape[2]
	pooled := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		vector := make([]float32, dim)
		count := 0
		position := 0
		for _, ids := range idBatches {
			for _, id := range ids[b] {
				if id != padIdx {
					row, err := out.Row(b, position)
					if err != nil {
						return nil, err
					}
					for d := range vector {
						vector[d] += row[d]
					}
					count++
				}
				position++
			}
		}
		if count > 0 {
			for d := range vector {
				vector[d] /= float32(count)
			}
		}
		pooled[b] = vector
	}
	return pooled, nil
}
