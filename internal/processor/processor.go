package processor

import (
	"fmt"
	"sort"
)

// Reserved tokens. Their indices are fixed: PAD=0, UNK=1, BOS=2, EOS=3.
const (
	TokenPad = "<PAD>"
	TokenUnk = "<UNK>"
	TokenBos = "<BOS>"
	TokenEos = "<EOS>"
)

// NumReservedTokens is the number of reserved vocabulary slots.
const NumReservedTokens = 4

// DefaultLengthPercentile is the corpus length percentile used for the
// auto sequence length.
const DefaultLengthPercentile = 95

// Processor aligns tokenized corpora with a vocabulary for a labeling
// task. Its token maps are usually overwritten by an embedding that owns
// the vocabulary.
type Processor struct {
	Token2Idx map[string]int
	Idx2Token map[int]string
	Label2Idx map[string]int
	Idx2Label map[int]string

	// AddBosEos frames every numerized sequence with BOS/EOS.
	AddBosEos bool

	branchLengths []int
}

// New returns a processor with empty vocabularies.
func New() *Processor {
	return &Processor{
		Token2Idx: make(map[string]int),
		Idx2Token: make(map[int]string),
		Label2Idx: make(map[string]int),
		Idx2Label: make(map[int]string),
	}
}

// ReservedTokens returns the reserved tokens in index order.
func ReservedTokens() []string {
	return []string{TokenPad, TokenUnk, TokenBos, TokenEos}
}

// SetVocabulary replaces the token maps with the given token→index map.
func (p *Processor) SetVocabulary(token2idx map[string]int) {
	if p == nil {
		return
	}
	p.Token2Idx = token2idx
	p.Idx2Token = make(map[int]string, len(token2idx))
	for token, idx := range token2idx {
		p.Idx2Token[idx] = token
	}
}

// AnalyzeCorpus records the length percentile of every corpus branch and
// builds the label vocabulary. Corpora are already tokenized: one token
// slice per sample.
func (p *Processor) AnalyzeCorpus(corpora [][][]string, labels []string) error {
	if p == nil {
		return fmt.Errorf("processor is nil")
	}
	if len(corpora) == 0 {
		return fmt.Errorf("at least one corpus is required")
	}

	branchLengths := make([]int, 0, len(corpora))
	for i, corpus := range corpora {
		if len(corpus) == 0 {
			return fmt.Errorf("corpus branch %d is empty", i)
		}
		lengths := make([]int, len(corpus))
		for j, sample := range corpus {
			lengths[j] = len(sample)
		}
		length, err := LengthPercentile(lengths, DefaultLengthPercentile)
		if err != nil {
			return fmt.Errorf("corpus branch %d: %w", i, err)
		}
		branchLengths = append(branchLengths, length)
	}
	p.branchLengths = branchLengths

	if len(labels) > 0 {
		p.buildLabelVocabulary(labels)
	}
	return nil
}

// BranchLengths returns the per-branch percentile lengths recorded by
// AnalyzeCorpus.
func (p *Processor) BranchLengths() []int {
	if p == nil {
		return nil
	}
	return p.branchLengths
}

func (p *Processor) buildLabelVocabulary(labels []string) {
	label2idx := make(map[string]int)
	for _, label := range labels {
		if _, seen := label2idx[label]; !seen {
			label2idx[label] = len(label2idx)
		}
	}
	p.Label2Idx = label2idx
	p.Idx2Label = make(map[int]string, len(label2idx))
	for label, idx := range label2idx {
		p.Idx2Label[idx] = label
	}
}

// NumerizeLabels maps labels to their indices.
func (p *Processor) NumerizeLabels(labels []string) ([]int, error) {
	if p == nil || len(p.Label2Idx) == 0 {
		return nil, fmt.Errorf("label vocabulary is empty")
	}
	ids := make([]int, len(labels))
	for i, label := range labels {
		idx, ok := p.Label2Idx[label]
		if !ok {
			return nil, fmt.Errorf("unknown label %q", label)
		}
		ids[i] = idx
	}
	return ids, nil
}

// NumerizeSequences converts token sequences to padded id sequences of the
// target length. Unknown tokens map to UNK, short sequences are
// right-padded with PAD, long ones are truncated. A non-positive length
// pads to the longest sequence in the batch.
func (p *Processor) NumerizeSequences(sequences [][]string, length int) ([][]int, error) {
	if p == nil || len(p.Token2Idx) == 0 {
		return nil, fmt.Errorf("token vocabulary is empty")
	}
	padIdx, ok := p.Token2Idx[TokenPad]
	if !ok {
		return nil, fmt.Errorf("vocabulary is missing %s", TokenPad)
	}
	unkIdx, ok := p.Token2Idx[TokenUnk]
	if !ok {
		return nil, fmt.Errorf("vocabulary is missing %s", TokenUnk)
	}
	if len(sequences) == 0 {
		return nil, fmt.Errorf("empty batch")
	}

	frame := 0
	if p.AddBosEos {
		frame = 2
	}
	target := length
	if target <= 0 {
		for _, sequence := range sequences {
			if n := len(sequence) + frame; n > target {
				target = n
			}
		}
	}
	if target == 0 {
		return nil, fmt.Errorf("batch has no tokens")
	}

	out := make([][]int, len(sequences))
	for i, sequence := range sequences {
		ids := make([]int, 0, target)
		if p.AddBosEos {
			ids = append(ids, p.Token2Idx[TokenBos])
		}
		for _, token := range sequence {
			idx, ok := p.Token2Idx[token]
			if !ok {
				idx = unkIdx
			}
			ids = append(ids, idx)
		}
		if p.AddBosEos {
			ids = append(ids, p.Token2Idx[TokenEos])
		}
		if len(ids) > target {
			ids = ids[:target]
		}
		for len(ids) < target {
			ids = append(ids, padIdx)
		}
		out[i] = ids
	}
	return out, nil
}

// RestoreSequence maps ids back to tokens, dropping PAD positions.
func (p *Processor) RestoreSequence(ids []int) ([]string, error) {
	if p == nil || len(p.Idx2Token) == 0 {
		return nil, fmt.Errorf("token vocabulary is empty")
	}
	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		token, ok := p.Idx2Token[id]
		if !ok {
			return nil, fmt.Errorf("unknown token id %d", id)
		}
		if token == TokenPad {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// LengthPercentile returns the length at the given percentile of the
// sorted lengths.
func LengthPercentile(lengths []int, percentile float64) (int, error) {
	if len(lengths) == 0 {
		return 0, fmt.Errorf("no lengths to rank")
	}
	if percentile < 0 || percentile > 100 {
		return 0, fmt.Errorf("percentile %f out of range", percentile)
	}
	sorted := append([]int(nil), lengths...)
	sort.Ints(sorted)
	idx := int(percentile / 100 * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx], nil
}
