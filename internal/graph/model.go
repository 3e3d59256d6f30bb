package graph

import (
	"fmt"
	"strings"
)

// Model is a static embedding graph: one embedding branch per input,
// merged by concatenation when more than one branch exists.
type Model struct {
	inputs   []*Input
	branches []*Embedding
	concat   *Concatenate
}

// NewModel pairs inputs with their embedding branches. With several
// branches a concatenate layer joins the outputs.
func NewModel(inputs []*Input, branches []*Embedding) (*Model, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("model needs at least one input")
	}
	if len(inputs) != len(branches) {
		return nil, fmt.Errorf("got %d inputs for %d branches", len(inputs), len(branches))
	}
	for i, branch := range branches {
		if branch == nil || branch.Weights == nil {
			return nil, fmt.Errorf("branch %d has no embedding weights", i)
		}
	}

	model := &Model{
		inputs:   append([]*Input(nil), inputs...),
		branches: append([]*Embedding(nil), branches...),
	}
	if len(branches) > 1 {
		model.concat = &Concatenate{Name: "layer_concatenate"}
	}
	return model, nil
}

// Inputs returns the model input placeholders.
func (m *Model) Inputs() []*Input {
	if m == nil {
		return nil
	}
	return m.inputs
}

// OutputDim returns the embedding vector size of the model output.
func (m *Model) OutputDim() int {
	if m == nil || len(m.branches) == 0 {
		return 0
	}
	return m.branches[0].Dim()
}

// Forward runs one numerized id batch through each branch and returns the
// merged [batch, seq, dim] tensor. Fixed-length inputs reject batches of
// the wrong width; variable-length inputs accept any uniform width.
func (m *Model) Forward(batches ...[][]int) (*Tensor, error) {
	if m == nil {
		return nil, fmt.Errorf("model is nil")
	}
	if len(batches) != len(m.inputs) {
		return nil, fmt.Errorf("got %d input batches, model has %d inputs", len(batches), len(m.inputs))
	}

	batchSize := -1
	outputs := make([]*Tensor, 0, len(m.branches))
	for i, batch := range batches {
		if len(batch) == 0 {
			return nil, fmt.Errorf("input %s: empty batch", m.inputs[i].Name)
		}
		if batchSize == -1 {
			batchSize = len(batch)
		} else if len(batch) != batchSize {
			return nil, fmt.Errorf("input %s: batch size %d, want %d", m.inputs[i].Name, len(batch), batchSize)
		}
		if want := m.inputs[i].Length; want != VariableLength {
			for _, sequence := range batch {
				if len(sequence) != want {
					return nil, fmt.Errorf("input %s: sequence length %d, want %d", m.inputs[i].Name, len(sequence), want)
				}
			}
		}
		out, err := m.branches[i].Apply(batch)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", m.inputs[i].Name, err)
		}
		outputs = append(outputs, out)
	}

	if m.concat == nil {
		return outputs[0], nil
	}
	return m.concat.Apply(outputs)
}

// Summary returns a human-readable layer listing.
func (m *Model) Summary() string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Layer                     Output Shape\n")
	sb.WriteString("---------------------------------------\n")
	for i, input := range m.inputs {
		length := "None"
		if input.Length != VariableLength {
			length = fmt.Sprintf("%d", input.Length)
		}
		fmt.Fprintf(&sb, "%-25s (None, %s)\n", input.Name, length)
		branch := m.branches[i]
		fmt.Fprintf(&sb, "%-25s (None, %s, %d) frozen=%t\n", branch.Name, length, branch.Dim(), !branch.Trainable)
	}
	if m.concat != nil {
		fmt.Fprintf(&sb, "%-25s (None, *, %d)\n", m.concat.Name, m.OutputDim())
	}
	return sb.String()
}
