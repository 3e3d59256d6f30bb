package graph

import "fmt"

// VariableLength marks an input that accepts any sequence length.
const VariableLength = 0

// Input declares a model input placeholder. Length is the fixed sequence
// length, or VariableLength when every batch decides its own.
type Input struct {
	Name   string
	Length int
}

// Embedding is an id-to-vector lookup layer over a [vocab, dim] weight
// tensor. Trainable is carried for summaries only; this engine never
// updates weights.
type Embedding struct {
	Name      string
	Weights   *Tensor
	Trainable bool
}

// NewEmbedding validates the weight tensor and wraps it in a lookup layer.
func NewEmbedding(name string, weights *Tensor, trainable bool) (*Embedding, error) {
	if weights == nil || weights.Rank() != 2 {
		return nil, fmt.Errorf("embedding weights must be a [vocab, dim] tensor")
	}
	return &Embedding{Name: name, Weights: weights, Trainable: trainable}, nil
}

// VocabSize returns the number of rows in the weight tensor.
func (l *Embedding) VocabSize() int {
	if l == nil || l.Weights == nil {
		return 0
	}
	return l.Weights.Shape[0]
}

// Dim returns the vector size of the weight tensor.
func (l *Embedding) Dim() int {
	if l == nil || l.Weights == nil {
		return 0
	}
	return l.Weights.Shape[1]
}

// Lookup returns the weight row for a token id as a shared view.
func (l *Embedding) Lookup(id int) ([]float32, error) {
	if l == nil || l.Weights == nil {
		return nil, fmt.Errorf("embedding layer has no weights")
	}
	return l.Weights.Row(id)
}

// Apply embeds a batch of id sequences into a [batch, seq, dim] tensor.
// Every sequence in the batch must have the same length.
func (l *Embedding) Apply(batch [][]int) (*Tensor, error) {
	if l == nil || l.Weights == nil {
		return nil, fmt.Errorf("embedding layer has no weights")
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	seqLen := len(batch[0])
	if seqLen == 0 {
		return nil, fmt.Errorf("empty sequence in batch")
	}

	dim := l.Dim()
	out, err := NewTensor(len(batch), seqLen, dim)
	if err != nil {
		return nil, err
	}
	for b, sequence := range batch {
		if len(sequence) != seqLen {
			return nil, fmt.Errorf("ragged batch: sequence %d has length %d, want %d", b, len(sequence), seqLen)
		}
		for s, id := range sequence {
			row, err := l.Lookup(id)
			if err != nil {
				return nil, fmt.Errorf("token id %d out of vocabulary (size %d)", id, l.VocabSize())
			}
			copy(out.Data[(b*seqLen+s)*dim:], row)
		}
	}
	return out, nil
}

// Concatenate merges branch outputs along the sequence axis, so branches
// with different sequence lengths can still be joined.
type Concatenate struct {
	Name string
}

// Apply joins [batch, seq_i, dim] tensors into [batch, sum(seq_i), dim].
func (c *Concatenate) Apply(inputs []*Tensor) (*Tensor, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("nothing to concatenate")
	}
	first := inputs[0]
	if first.Rank() != 3 {
		return nil, fmt.Errorf("concatenate expects rank-3 tensors, got rank %d", first.Rank())
	}
	batch, dim := first.Shape[0], first.Shape[2]
	totalSeq := 0
	for i, input := range inputs {
		if input.Rank() != 3 {
			return nil, fmt.Errorf("concatenate expects rank-3 tensors, got rank %d", input.Rank())
		}
		if input.Shape[0] != batch || input.Shape[2] != dim {
			return nil, fmt.Errorf("branch %d has shape %v, want [%d, *, %d]", i, input.Shape, batch, dim)
		}
		totalSeq += input.Shape[1]
	}

	out, err := NewTensor(batch, totalSeq, dim)
	if err != nil {
		return nil, err
	}
	for b := 0; b < batch; b++ {
		written := 0
		for _, input := range inputs {
			seq := input.Shape[1]
			src := input.Data[b*seq*dim : (b+1)*seq*dim]
			copy(out.Data[(b*totalSeq+written)*dim:], src)
			written += seq
		}
	}
	return out, nil
}
