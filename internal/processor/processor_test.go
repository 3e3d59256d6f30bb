package processor

import (
	"testing"
)

func vocabProcessor() *Processor {
	p := New()
	p.SetVocabulary(map[string]int{
		TokenPad: 0,
		TokenUnk: 1,
		TokenBos: 2,
		TokenEos: 3,
		"the":    4,
		"cat":    5,
		"sat":    6,
	})
	return p
}

func TestSetVocabularyBuildsReverseMap(t *testing.T) {
	p := vocabProcessor()
	if p.Idx2Token[5] != "cat" {
		t.Fatalf("unexpected reverse map: %v", p.Idx2Token)
	}
	if len(p.Idx2Token) != len(p.Token2Idx) {
		t.Fatalf("reverse map size %d, want %d", len(p.Idx2Token), len(p.Token2Idx))
	}
}

func TestNumerizeSequencesPadsAndTruncates(t *testing.T) {
	p := vocabProcessor()
	ids, err := p.NumerizeSequences([][]string{
		{"the", "cat"},
		{"the", "cat", "sat", "sat", "sat"},
	}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want0 := []int{4, 5, 0, 0}
	want1 := []int{4, 5, 6, 6}
	for i, want := range [][]int{want0, want1} {
		for j := range want {
			if ids[i][j] != want[j] {
				t.Fatalf("sequence %d: got %v, want %v", i, ids[i], want)
			}
		}
	}
}

func TestNumerizeSequencesMapsUnknownToUnk(t *testing.T) {
	p := vocabProcessor()
	ids, err := p.NumerizeSequences([][]string{{"the", "unicorn"}}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids[0][1] != 1 {
		t.Fatalf("expected UNK index 1, got %d", ids[0][1])
	}
}

func TestNumerizeSequencesVariableLengthUsesBatchMax(t *testing.T) {
	p := vocabProcessor()
	ids, err := p.NumerizeSequences([][]string{
		{"the"},
		{"the", "cat", "sat"},
	}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids[0]) != 3 || len(ids[1]) != 3 {
		t.Fatalf("expected batch max length 3, got %d and %d", len(ids[0]), len(ids[1]))
	}
}

func TestNumerizeSequencesFramesWithBosEos(t *testing.T) {
	p := vocabProcessor()
	p.AddBosEos = true
	ids, err := p.NumerizeSequences([][]string{{"cat"}}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 5, 3, 0}
	for i := range want {
		if ids[0][i] != want[i] {
			t.Fatalf("got %v, want %v", ids[0], want)
		}
	}
}

func TestNumerizeSequencesRequiresVocabulary(t *testing.T) {
	p := New()
	if _, err := p.NumerizeSequences([][]string{{"the"}}, 2); err == nil {
		t.Fatal("expected error for empty vocabulary")
	}
}

func TestRestoreSequenceDropsPadding(t *testing.T) {
	p := vocabProcessor()
	tokens, err := p.RestoreSequence([]int{4, 5, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "the" || tokens[1] != "cat" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}

func TestAnalyzeCorpusRecordsBranchLengthsAndLabels(t *testing.T) {
	p := New()
	corpus := make([][]string, 20)
	for i := range corpus {
		sample := make([]string, i+1)
		for j := range sample {
			sample[j] = "the"
		}
		corpus[i] = sample
	}
	labels := []string{"news", "chat", "news", "weather"}

	if err := p.AnalyzeCorpus([][][]string{corpus, corpus[:10]}, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lengths := p.BranchLengths()
	if len(lengths) != 2 {
		t.Fatalf("expected 2 branch lengths, got %v", lengths)
	}
	// Branch 0 lengths are 1..20; the 95th percentile entry is 20.
	if lengths[0] != 20 {
		t.Fatalf("expected branch 0 length 20, got %d", lengths[0])
	}
	if lengths[1] != 10 {
		t.Fatalf("expected branch 1 length 10, got %d", lengths[1])
	}

	if len(p.Label2Idx) != 3 {
		t.Fatalf("expected 3 labels, got %v", p.Label2Idx)
	}
	if p.Label2Idx["news"] != 0 || p.Idx2Label[1] != "chat" {
		t.Fatalf("unexpected label maps %v %v", p.Label2Idx, p.Idx2Label)
	}
}

func TestNumerizeLabels(t *testing.T) {
	p := New()
	if err := p.AnalyzeCorpus([][][]string{{{"the"}}}, []string{"a", "b", "a"}); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	ids, err := p.NumerizeLabels([]string{"b", "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids[0] != 1 || ids[1] != 0 {
		t.Fatalf("unexpected ids %v", ids)
	}
	if _, err := p.NumerizeLabels([]string{"c"}); err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestLengthPercentile(t *testing.T) {
	lengths := []int{5, 1, 3, 2, 4}
	got, err := LengthPercentile(lengths, 95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	got, err = LengthPercentile(lengths, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if _, err := LengthPercentile(nil, 95); err == nil {
		t.Fatal("expected error for empty lengths")
	}
}

func TestWhitespaceTokenizer(t *testing.T) {
	tokens, err := WhitespaceTokenizer{Lowercase: true}.Tokenize("The  Cat\tsat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 3 || tokens[0] != "the" || tokens[1] != "cat" || tokens[2] != "sat" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}
