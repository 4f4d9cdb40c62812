package models

// Chunk is one indexed unit of reference-corpus text. The ID is the chunk's
// position in the text store and stays stable for the lifetime of the loaded
// index.
type Chunk struct {
	ID   int
	Text string
}

// ScoredChunk is a chunk returned by a nearest-neighbor lookup together with
// its L2 distance from the query embedding. Lower distance means closer.
type ScoredChunk struct {
	Chunk
	Distance float64
}

// ConversationTurn is one question/answer exchange. History bookkeeping is
// done by the caller; the pipeline only produces the turn.
type ConversationTurn struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
