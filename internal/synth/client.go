package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/observability"
)

// Client talks to a Stable Diffusion compatible txt2img HTTP endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	defaults Request
	logger   *slog.Logger
}

func NewClient(cfg config.SynthesisConfig, logger *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		defaults: Request{
			Width:    cfg.DefaultWidth,
			Height:   cfg.DefaultHeight,
			Steps:    cfg.DefaultSteps,
			Guidance: cfg.DefaultGuidance,
			Seed:     -1,
		},
		logger: logger,
	}
}

type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg_scale"`
	Seed           int64   `json:"seed"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

func (c *Client) Generate(ctx context.Context, req Request) (image.Image, error) {
	if req.Width <= 0 {
		req.Width = c.defaults.Width
	}
	if req.Height <= 0 {
		req.Height = c.defaults.Height
	}
	if req.Steps <= 0 {
		req.Steps = c.defaults.Steps
	}
	if req.Guidance <= 0 {
		req.Guidance = c.defaults.Guidance
	}
	if req.Seed == 0 {
		req.Seed = c.defaults.Seed
	}

	body, err := json.Marshal(txt2imgRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		CFGScale:       req.Guidance,
		Seed:           req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal txt2img request: %w", err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/sdapi/v1/txt2img", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build txt2img request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call synthesis backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesis backend returned %d: %s", resp.StatusCode, msg)
	}

	var out txt2imgResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode txt2img response: %w", err)
	}
	if len(out.Images) == 0 {
		return nil, fmt.Errorf("synthesis backend returned no images")
	}

	raw, err := base64.StdEncoding.DecodeString(out.Images[0])
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode generated image: %w", err)
	}

	observability.SynthesisDuration.Observe(time.Since(start).Seconds())
	c.logger.Debug("image generated", "width", req.Width, "height", req.Height,
		"steps", req.Steps, "took", time.Since(start))
	return img, nil
}
