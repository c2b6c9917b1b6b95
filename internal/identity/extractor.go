package identity

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// Dim is the length of the identity feature vectors this package produces.
const Dim = 768

// Extractor computes an identity feature vector from a reference image.
//
// The bundled implementation is a stand-in that produces random vectors
// of the right shape so the surrounding pipeline can be exercised without
// a model runtime. Swap in a real implementation behind this interface.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) ([]float32, error)
}

// RandomExtractor produces pseudo-random unit-range vectors. It does not
// look at the image beyond checking that the file exists.
type RandomExtractor struct{}

func NewRandomExtractor() *RandomExtractor {
	return &RandomExtractor{}
}

func (e *RandomExtractor) Extract(ctx context.Context, imagePath string) ([]float32, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("reference image: %w", err)
	}
	vec := make([]float32, Dim)
	for i := range vec {
		vec[i] = rand.Float32()
	}
	return vec, nil
}

// WriteVector persists a feature vector as a little-endian float32 blob.
func WriteVector(path string, vec []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create embedding file: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, vec); err != nil {
		return fmt.Errorf("write embedding: %w", err)
	}
	return nil
}

// ReadVector loads a feature vector written by WriteVector.
func ReadVector(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding file %s: truncated (%d bytes)", path, len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}
