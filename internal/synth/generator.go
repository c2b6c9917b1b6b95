package synth

import (
	"context"
	"image"
)

// Request describes one text-to-image generation.
type Request struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	Guidance       float64
	// Seed fixes the sampler; -1 asks the backend to pick one.
	Seed int64
}

// Generator produces an image from a text prompt. Implementations are
// safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req Request) (image.Image, error)
}
