package word2vec

import (
	"fmt"
	"math"
	"sort"
)

// KeyedVectors is an in-memory word2vec key-vector table. Words keep the
// order they had in the source file; vectors are stored as one flat
// float32 block of len(words)*dim.
type KeyedVectors struct {
	words   []string
	index   map[string]int
	vectors []float32
	dim     int
}

// Neighbor is a scored word from a similarity query.
type Neighbor struct {
	Word  string
	Score float32
}

// Len returns the number of words in the table.
func (kv *KeyedVectors) Len() int {
	if kv == nil {
		return 0
	}
	return len(kv.words)
}

// VectorSize returns the dimensionality of the vectors.
func (kv *KeyedVectors) VectorSize() int {
	if kv == nil {
		return 0
	}
	return kv.dim
}

// Words returns the words in file order. The returned slice is shared and
// must not be modified.
func (kv *KeyedVectors) Words() []string {
	if kv == nil {
		return nil
	}
	return kv.words
}

// Word returns the word at row i.
func (kv *KeyedVectors) Word(i int) (string, error) {
	if kv == nil || i < 0 || i >= len(kv.words) {
		return "", fmt.Errorf("word index %d out of range", i)
	}
	return kv.words[i], nil
}

// Index returns the row index for a word.
func (kv *KeyedVectors) Index(word string) (int, bool) {
	if kv == nil {
		return 0, false
	}
	i, ok := kv.index[word]
	return i, ok
}

// Row returns the vector at row i as a shared view.
func (kv *KeyedVectors) Row(i int) ([]float32, error) {
	if kv == nil || i < 0 || i >= len(kv.words) {
		return nil, fmt.Errorf("vector index %d out of range", i)
	}
	return kv.vectors[i*kv.dim : (i+1)*kv.dim], nil
}

// Vector returns the vector for a word.
func (kv *KeyedVectors) Vector(word string) ([]float32, bool) {
	i, ok := kv.Index(word)
	if !ok {
		return nil, false
	}
	return kv.vectors[i*kv.dim : (i+1)*kv.dim], true
}

// Similarity returns the cosine similarity between two words.
func (kv *KeyedVectors) Similarity(a, b string) (float32, error) {
	va, ok := kv.Vector(a)
	if !ok {
		return 0, fmt.Errorf("word %q not in vocabulary", a)
	}
	vb, ok := kv.Vector(b)
	if !ok {
		return 0, fmt.Errorf("word %q not in vocabulary", b)
	}
	return cosineSimilarity(va, vb), nil
}

// MostSimilar returns the topN nearest words to the query by cosine
// similarity, excluding the query itself.
func (kv *KeyedVectors) MostSimilar(word string, topN int) ([]Neighbor, error) {
	query, ok := kv.Vector(word)
	if !ok {
		return nil, fmt.Errorf("word %q not in vocabulary", word)
	}
	if topN <= 0 {
		topN = 10
	}

	neighbors := make([]Neighbor, 0, kv.Len())
	for i, candidate := range kv.words {
		if candidate == word {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Word:  candidate,
			Score: cosineSimilarity(query, kv.vectors[i*kv.dim:(i+1)*kv.dim]),
		})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Score > neighbors[j].Score
	})
	if len(neighbors) > topN {
		neighbors = neighbors[:topN]
	}
	return neighbors, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
