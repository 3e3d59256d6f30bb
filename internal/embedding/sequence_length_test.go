package embedding

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSequenceLengthUnmarshalForms(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  SequenceLength
	}{
		{"auto", `auto`, AutoLength()},
		{"auto upper", `AUTO`, AutoLength()},
		{"variable", `variable`, VariableLength()},
		{"integer", `50`, FixedLength(50)},
		{"list", `[12, 20]`, BranchLengths(12, 20)},
	}
	for _, tc := range cases {
		var got SequenceLength
		if err := yaml.Unmarshal([]byte(tc.input), &got); err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got.Auto != tc.want.Auto || got.Variable != tc.want.Variable || len(got.Lengths) != len(tc.want.Lengths) {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
		for i := range tc.want.Lengths {
			if got.Lengths[i] != tc.want.Lengths[i] {
				t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
			}
		}
	}
}

func TestSequenceLengthUnmarshalRejectsInvalid(t *testing.T) {
	for _, input := range []string{`hello`, `-3`, `0`, `[12, -1]`, `{a: 1}`} {
		var got SequenceLength
		if err := yaml.Unmarshal([]byte(input), &got); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestSequenceLengthMarshalRoundTrip(t *testing.T) {
	for _, value := range []SequenceLength{
		AutoLength(),
		VariableLength(),
		FixedLength(50),
		BranchLengths(12, 20),
	} {
		data, err := yaml.Marshal(value)
		if err != nil {
			t.Fatalf("marshal %v: %v", value, err)
		}
		var got SequenceLength
		if err := yaml.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %q: %v", data, err)
		}
		if got.String() != value.String() {
			t.Fatalf("round trip changed %v to %v", value, got)
		}
	}
}

func TestSequenceLengthValidate(t *testing.T) {
	if err := (SequenceLength{}).Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}
	if err := (SequenceLength{Auto: true, Variable: true}).Validate(); err == nil {
		t.Fatal("expected error for contradictory config")
	}
	if err := FixedLength(10).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
