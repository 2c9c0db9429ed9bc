package classify

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// Suggestion is an advisory nearest-category match for a piece of trigger
// text. Nothing in pkg/scoring reads Similarity or Category to decide a
// score — a caller wires this into metric.SymbolResult.Suggestion purely
// for operator visibility.
type Suggestion struct {
	Category   string
	Similarity float64
}

// Classifier holds a small in-memory chromem-go collection of known symbol
// categories, each seeded with a handful of representative example
// strings, and answers "which category does this text most resemble".
type Classifier struct {
	collection *chromem.Collection
}

// New creates a Classifier backed by an in-memory chromem-go database and
// the package's deterministic HashEmbedder.
func New() (*Classifier, error) {
	db := chromem.NewDB()
	embedder := NewHashEmbedder()

	collection, err := db.CreateCollection("symbol-categories", nil, embedder.Embed)
	if err != nil {
		return nil, fmt.Errorf("classify: create collection: %w", err)
	}
	return &Classifier{collection: collection}, nil
}

// Seed registers category with a set of representative example phrases.
// Call once per category at startup; re-seeding the same category appends
// more examples rather than replacing it.
func (c *Classifier) Seed(ctx context.Context, category string, examples []string) error {
	docs := make([]chromem.Document, len(examples))
	offset := c.collection.Count()
	for i, ex := range examples {
		docs[i] = chromem.Document{
			ID:       fmt.Sprintf("%s-%d", category, offset+i),
			Content:  ex,
			Metadata: map[string]string{"category": category},
		}
	}
	return c.collection.AddDocuments(ctx, docs, 1)
}

// Suggest returns the closest seeded category for text, or ok=false if the
// collection has no seeds yet.
func (c *Classifier) Suggest(ctx context.Context, text string) (Suggestion, bool, error) {
	if c.collection.Count() == 0 {
		return Suggestion{}, false, nil
	}

	results, err := c.collection.Query(ctx, text, 1, nil, nil)
	if err != nil {
		return Suggestion{}, false, fmt.Errorf("classify: query: %w", err)
	}
	if len(results) == 0 {
		return Suggestion{}, false, nil
	}

	top := results[0]
	return Suggestion{
		Category:   top.Metadata["category"],
		Similarity: float64(top.Similarity),
	}, true, nil
}
