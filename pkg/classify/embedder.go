// Package classify provides an advisory, non-scoring suggestion for symbols
// unknown to pkg/registry: given the text that triggered an insertion, it
// returns the closest known symbol category by embedding similarity. It
// never participates in §4.2's weight composition — see
// metric.SymbolResult.Suggestion, which nothing downstream reads for
// scoring purposes.
//
// Grounded on the teacher's vector_store.go (EmbeddingProvider interface,
// CosineSimilarityF32) and local_embedder.go, with the ONNX/Hugot model
// swapped for a small self-contained deterministic embedder so this
// supplemental feature needs no model download.
package classify

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// embeddingDimension matches the teacher's MiniLM dimension so the rest of
// the classify package (and chromem-go's cosine-similarity query path)
// never has to special-case a different width.
const embeddingDimension = 384

// HashEmbedder is a deterministic, dependency-free stand-in for a trained
// embedding model: it hashes each token into a dimension and accumulates a
// signed weight, then L2-normalizes. Two texts sharing more tokens land
// closer together under cosine similarity — enough signal for "which known
// category does this resemble" without shipping or downloading a model.
type HashEmbedder struct{}

// NewHashEmbedder returns a ready embedder.
func NewHashEmbedder() *HashEmbedder { return &HashEmbedder{} }

// Dimension returns the embedding width, satisfying the shape chromem-go's
// EmbeddingFunc and the teacher's EmbeddingProvider both expect.
func (e *HashEmbedder) Dimension() int { return embeddingDimension }

// Embed produces a deterministic unit vector for text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, embeddingDimension)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		idx := h.Sum32() % embeddingDimension
		sign := float32(1)
		if (h.Sum32()/embeddingDimension)%2 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text independently; this embedder has no batching
// advantage but the method exists so HashEmbedder can stand in anywhere the
// teacher's EmbeddingProvider interface is expected.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}
