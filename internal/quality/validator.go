package quality

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/media"
	"github.com/your-org/icg/internal/models"
)

// Report is the outcome of scoring one piece of content. Scores live on
// a 0-10 scale; Passed compares against the validator's threshold.
type Report struct {
	Score     float64            `json:"score"`
	Passed    bool               `json:"passed"`
	Threshold float64            `json:"threshold"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// Validator scores images and videos with cheap pixel statistics:
// brightness balance, contrast spread and Laplacian sharpness. It makes
// no aesthetic judgment, it only catches technically broken output.
type Validator struct {
	minScore     float64
	sampleFrames int
	logger       *slog.Logger
}

func NewValidator(cfg config.QualityConfig, logger *slog.Logger) *Validator {
	return &Validator{
		minScore:     cfg.MinScore,
		sampleFrames: cfg.SampleFrames,
		logger:       logger,
	}
}

// MinScore returns the configured pass threshold.
func (v *Validator) MinScore() float64 { return v.minScore }

// ScoreImage rates a decoded image. Weights favor sharpness since blur
// is the most common synthesis failure.
func (v *Validator) ScoreImage(img image.Image) Report {
	return v.ScoreImageAgainst(img, nil)
}

// ScoreImageAgainst rates img and, when reference is non-nil, adds a
// similarity-to-reference metric to the breakdown. The similarity is
// informational only and does not move the score.
func (v *Validator) ScoreImageAgainst(img, reference image.Image) Report {
	gray := imaging.Grayscale(img)

	mean, stddev := grayStats(gray)
	lapVar := laplacianVariance(gray)

	brightness := 1 - 2*math.Abs(mean/255-0.5)
	contrast := math.Min(1, 1.5*(stddev/128))
	sharpness := math.Min(1, 1.5*(lapVar/5000))

	score := 10 * (0.3*brightness + 0.3*contrast + 0.4*sharpness)
	breakdown := map[string]float64{
		"brightness": round2(brightness * 10),
		"contrast":   round2(contrast * 10),
		"sharpness":  round2(sharpness * 10),
	}

	if reference != nil {
		b := img.Bounds()
		refGray := imaging.Grayscale(imaging.Resize(reference, b.Dx(), b.Dy(), imaging.Lanczos))
		breakdown["reference_similarity"] = round2(pixelSimilarity(gray, refGray) * 10)
	}

	return Report{
		Score:     round2(score),
		Passed:    score >= v.minScore,
		Threshold: v.minScore,
		Breakdown: breakdown,
	}
}

// ValidateImageFile scores the image stored at path. referencePath is
// optional; when set, the reference similarity is reported alongside.
func (v *Validator) ValidateImageFile(ctx context.Context, path, referencePath string) (Report, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open image %s: %w", path, err)
	}

	var reference image.Image
	if referencePath != "" {
		reference, err = imaging.Open(referencePath)
		if err != nil {
			return Report{}, fmt.Errorf("open reference %s: %w", referencePath, err)
		}
	}
	return v.ScoreImageAgainst(img, reference), nil
}

// ValidateVideo samples frames evenly across the clip, scores each one
// and blends the average with a stability term that punishes quality
// swings between frames.
func (v *Validator) ValidateVideo(ctx context.Context, path string) (Report, error) {
	info, err := media.Probe(ctx, path)
	if err != nil {
		return Report{}, err
	}
	if info.FrameCount <= 0 {
		return Report{}, fmt.Errorf("video %s has no frames", path)
	}

	samples := v.sampleFrames
	if samples > info.FrameCount {
		samples = info.FrameCount
	}

	scores := make([]float64, 0, samples)
	for i := 0; i < samples; i++ {
		idx := i * info.FrameCount / samples
		frame, err := media.ExtractFrame(ctx, path, idx)
		if err != nil {
			v.logger.Warn("skipping unreadable frame", "video", path, "frame", idx, "error", err)
			continue
		}
		scores = append(scores, v.ScoreImage(frame).Score)
	}
	if len(scores) == 0 {
		v.logger.Warn("no decodable frames", "video", path)
	}
	return v.videoReport(scores), nil
}

// videoReport blends the frame average with a stability term. A clip
// with no decodable frames scores zero and fails.
func (v *Validator) videoReport(scores []float64) Report {
	if len(scores) == 0 {
		return Report{Score: 0, Passed: false, Threshold: v.minScore}
	}

	avg, stddev := meanStddev(scores)
	stability := math.Max(0, 10-5*stddev)
	score := 0.7*avg + 0.3*stability

	return Report{
		Score:     round2(score),
		Passed:    score >= v.minScore,
		Threshold: v.minScore,
		Breakdown: map[string]float64{
			"frame_average": round2(avg),
			"stability":     round2(stability),
		},
	}
}

// consistencySize is the common resolution images are compared at.
const consistencySize = 256

// PersonaConsistency compares each image against the reference by mean
// pixel difference at a common resolution and averages the per-image
// similarity. A crude stand-in for identity-vector comparison, but it
// reliably flags images of entirely different subjects or palettes.
func (v *Validator) PersonaConsistency(ctx context.Context, referencePath string, imagePaths []string) (Report, error) {
	if len(imagePaths) == 0 {
		return Report{}, &models.InvalidArgumentError{Field: "images"}
	}

	ref, err := imaging.Open(referencePath)
	if err != nil {
		return Report{}, fmt.Errorf("open reference %s: %w", referencePath, err)
	}
	refGray := imaging.Grayscale(imaging.Resize(ref, consistencySize, consistencySize, imaging.Lanczos))

	total := 0.0
	breakdown := make(map[string]float64, len(imagePaths))
	for _, path := range imagePaths {
		img, err := imaging.Open(path)
		if err != nil {
			return Report{}, fmt.Errorf("open image %s: %w", path, err)
		}
		imgGray := imaging.Grayscale(imaging.Resize(img, consistencySize, consistencySize, imaging.Lanczos))

		sim := pixelSimilarity(refGray, imgGray) * 10
		breakdown[path] = round2(sim)
		total += sim
	}

	score := total / float64(len(imagePaths))
	return Report{
		Score:     round2(score),
		Passed:    score >= v.minScore,
		Threshold: v.minScore,
		Breakdown: breakdown,
	}, nil
}

// --- pixel statistics ---

// grayStats returns the mean and standard deviation of the gray channel.
func grayStats(gray *image.NRGBA) (mean, stddev float64) {
	b := gray.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[(y-b.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := float64(row[x*4])
			sum += v
			sumSq += v * v
		}
	}
	mean = sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// laplacianVariance measures sharpness as the variance of a 4-neighbor
// Laplacian response. Blurry images have flat gradients and score low.
func laplacianVariance(gray *image.NRGBA) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x*4])
	}

	n := float64((w - 2) * (h - 2))
	var sum, sumSq float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += lap
			sumSq += lap * lap
		}
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance
}

// pixelSimilarity returns 1 minus the normalized mean absolute pixel
// difference of two equal-size grayscale images.
func pixelSimilarity(a, b *image.NRGBA) float64 {
	bounds := a.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return 0
	}

	var diff float64
	for y := 0; y < bounds.Dy(); y++ {
		rowA := a.Pix[y*a.Stride:]
		rowB := b.Pix[y*b.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			diff += math.Abs(float64(rowA[x*4]) - float64(rowB[x*4]))
		}
	}
	return 1 - diff/(n*255)
}

func meanStddev(vals []float64) (mean, stddev float64) {
	n := float64(len(vals))
	for _, v := range vals {
		mean += v
	}
	mean /= n

	for _, v := range vals {
		stddev += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(stddev / n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
