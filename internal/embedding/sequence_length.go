package embedding

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SequenceLength configures model input lengths. Auto derives the length
// from the corpus length percentile, Variable leaves the input unbounded,
// and Lengths pins one fixed length per input branch.
type SequenceLength struct {
	Auto     bool
	Variable bool
	Lengths  []int
}

// AutoLength derives input lengths from the analyzed corpus.
func AutoLength() SequenceLength {
	return SequenceLength{Auto: true}
}

// VariableLength lets every batch decide its own input length.
func VariableLength() SequenceLength {
	return SequenceLength{Variable: true}
}

// FixedLength pins a single input branch to the given length.
func FixedLength(length int) SequenceLength {
	return SequenceLength{Lengths: []int{length}}
}

// BranchLengths pins one input branch per given length.
func BranchLengths(lengths ...int) SequenceLength {
	return SequenceLength{Lengths: append([]int(nil), lengths...)}
}

// Validate rejects empty or contradictory configurations.
func (s SequenceLength) Validate() error {
	modes := 0
	if s.Auto {
		modes++
	}
	if s.Variable {
		modes++
	}
	if len(s.Lengths) > 0 {
		modes++
	}
	if modes != 1 {
		return fmt.Errorf("sequence length must be auto, variable, or fixed lengths")
	}
	for _, length := range s.Lengths {
		if length <= 0 {
			return fmt.Errorf("sequence length %d must be positive", length)
		}
	}
	return nil
}

func (s SequenceLength) String() string {
	switch {
	case s.Auto:
		return "auto"
	case s.Variable:
		return "variable"
	default:
		parts := make([]string, len(s.Lengths))
		for i, length := range s.Lengths {
			parts[i] = fmt.Sprintf("%d", length)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
}

// UnmarshalYAML accepts "auto", "variable", an integer, or an integer
// list.
func (s *SequenceLength) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var text string
		if err := value.Decode(&text); err == nil {
			switch strings.ToLower(strings.TrimSpace(text)) {
			case "auto":
				*s = AutoLength()
				return nil
			case "variable":
				*s = VariableLength()
				return nil
			}
		}
		var length int
		if err := value.Decode(&length); err != nil {
			return fmt.Errorf("invalid sequence length %q", value.Value)
		}
		*s = FixedLength(length)
	case yaml.SequenceNode:
		var lengths []int
		if err := value.Decode(&lengths); err != nil {
			return fmt.Errorf("invalid sequence length list: %w", err)
		}
		*s = BranchLengths(lengths...)
	default:
		return fmt.Errorf("invalid sequence length node")
	}
	return s.Validate()
}

// MarshalYAML emits the same forms UnmarshalYAML accepts.
func (s SequenceLength) MarshalYAML() (interface{}, error) {
	switch {
	case s.Auto:
		return "auto", nil
	case s.Variable:
		return "variable", nil
	case len(s.Lengths) == 1:
		return s.Lengths[0], nil
	default:
		return s.Lengths, nil
	}
}
