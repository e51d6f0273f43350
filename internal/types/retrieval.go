package types

// RetrievalChunk is a bounded slice of one normalized input field.
// ID has the form {source}:{seq}:{start}-{end} and is stable for identical normalized text.
type RetrievalChunk struct {
	ID            string `json:"id"`
	Source        string `json:"source"`
	Text          string `json:"text"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	TokenEstimate int    `json:"tokenEstimate"`
}

// RetrievalTraceEntry records why a chunk was selected.
type RetrievalTraceEntry struct {
	ChunkID string `json:"chunkId"`
	Reason  string `json:"reason"`
}

// RetrievalSelection is the ranked output of chunk selection.
type RetrievalSelection struct {
	Chunks []RetrievalChunk      `json:"chunks"`
	Trace  []RetrievalTraceEntry `json:"trace"`
}

// ChunkIDs returns the ids of the selected chunks in rank order.
func (s RetrievalSelection) ChunkIDs() []string {
	ids := make([]string, 0, len(s.Chunks))
	for _, c := range s.Chunks {
		ids = append(ids, c.ID)
	}
	return ids
}
