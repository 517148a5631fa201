package embedding

import "context"

type Embedder interface {
	BatchSize() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
