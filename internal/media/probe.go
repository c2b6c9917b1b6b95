package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo describes the first video stream of a media file.
type VideoInfo struct {
	Width      int
	Height     int
	FPS        float64
	Duration   float64
	FrameCount int
}

// Probe inspects a video file with ffprobe.
func Probe(ctx context.Context, videoPath string) (*VideoInfo, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w (%s)", videoPath, err, stderr.String())
	}

	var out struct {
		Streams []struct {
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			RFrameRate string `json:"r_frame_rate"`
			NBFrames   string `json:"nb_frames"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output for %s: %w", videoPath, err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("no video stream in %s", videoPath)
	}

	s := out.Streams[0]
	info := &VideoInfo{
		Width:  s.Width,
		Height: s.Height,
		FPS:    parseFrameRate(s.RFrameRate),
	}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)

	if n, err := strconv.Atoi(s.NBFrames); err == nil {
		info.FrameCount = n
	} else if info.FPS > 0 && info.Duration > 0 {
		info.FrameCount = int(info.FPS * info.Duration)
	}
	return info, nil
}

// parseFrameRate converts an ffprobe rational like "30000/1001" to a float.
func parseFrameRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
