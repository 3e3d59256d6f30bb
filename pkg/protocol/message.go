package protocol

// MessageKind defines type of message
type MessageKind string

const (
	MessageKindEmbed MessageKind = "embed"
	MessageKindVocab MessageKind = "vocab"
	MessageKindEvent MessageKind = "event"
)

// Action defines action within a message kind
type Action string

const (
	ActionEncode  Action = "encode"
	ActionLookup  Action = "lookup"
	ActionSimilar Action = "similar"
	ActionEcho    Action = "echo"
)

// Message represents a protocol message
type Message struct {
	Kind   MessageKind `json:"kind"`
	Action Action      `json:"action,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// EmbedRequest asks the gateway to embed texts.
type EmbedRequest struct {
	Texts []string `json:"texts"`
}

// EmbedResponse carries one vector per requested text.
type EmbedResponse struct {
	Vectors [][]float32 `json:"vectors"`
	Dim     int         `json:"dim"`
}

// LookupRequest asks for the vocabulary index of tokens.
type LookupRequest struct {
	Tokens []string `json:"tokens"`
}

// LookupResponse carries one vocabulary index per requested token, with
// the UNK index standing in for unknown tokens.
type LookupResponse struct {
	Indices []int `json:"indices"`
}

// SimilarRequest asks for the nearest vocabulary neighbors of a word.
type SimilarRequest struct {
	Word string `json:"word"`
	TopN int    `json:"top_n,omitempty"`
}

// SimilarNeighbor is one scored neighbor.
type SimilarNeighbor struct {
	Word  string  `json:"word"`
	Score float32 `json:"score"`
}

// SimilarResponse carries neighbors in descending score order.
type SimilarResponse struct {
	Neighbors []SimilarNeighbor `json:"neighbors"`
}

// ModelStatus describes the loaded embedding model.
type ModelStatus struct {
	VectorPath    string   `json:"vector_path,omitempty"`
	TokenCount    int      `json:"token_count"`
	EmbeddingSize int      `json:"embedding_size"`
	BranchLengths []int    `json:"branch_lengths,omitempty"`
	TopWords      []string `json:"top_words,omitempty"`
}
