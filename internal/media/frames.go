package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
)

// FrameCallback is called for each decoded frame in order.
type FrameCallback func(index int, frame image.Image) error

// ExtractFrame decodes the frame at the given index from a video file.
// Returns an error if the frame does not exist or cannot be decoded.
func ExtractFrame(ctx context.Context, videoPath string, index int) (image.Image, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf("select=eq(n\\,%d)", index),
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame %d of %s: %w (%s)", index, videoPath, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("no frame at index %d in %s", index, videoPath)
	}

	img, err := jpeg.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d of %s: %w", index, videoPath, err)
	}
	return img, nil
}

// ReadFrames decodes every frame of a video file in order and hands each
// one to the callback. A callback error aborts decoding and is returned.
func ReadFrames(ctx context.Context, videoPath string, callback FrameCallback) error {
	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-i", videoPath,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Warn("ffmpeg stderr", "output", scanner.Text())
		}
	}()

	cbErr := readJPEGStream(ctx, stdout, callback)
	if cbErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return cbErr
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode %s: %w", videoPath, err)
	}
	return nil
}

// readJPEGStream reads a stream of concatenated JPEG images and decodes
// each one.
func readJPEGStream(ctx context.Context, r io.Reader, callback FrameCallback) error {
	reader := bufio.NewReaderSize(r, 512*1024)
	index := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := findJPEGStart(reader); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		frameData, err := readUntilJPEGEnd(reader)
		if err != nil {
			if err == io.EOF && index > 0 {
				return nil // stream ended mid-frame; treat as normal end
			}
			return err
		}

		frame, err := jpeg.Decode(bytes.NewReader(frameData))
		if err != nil {
			return fmt.Errorf("decode frame %d: %w", index, err)
		}

		if err := callback(index, frame); err != nil {
			return err
		}
		index++
	}
}

// findJPEGStart scans forward to the next FF D8 marker.
func findJPEGStart(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b != 0xFF {
			continue
		}
		b, err = r.ReadByte()
		if err != nil {
			return err
		}
		if b == 0xD8 {
			return nil
		}
	}
}

// readUntilJPEGEnd collects bytes up to and including the FF D9 marker.
func readUntilJPEGEnd(r *bufio.Reader) ([]byte, error) {
	data := []byte{0xFF, 0xD8}

	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		data = append(data, b)

		if b == 0xFF {
			next, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			data = append(data, next)
			if next == 0xD9 {
				return data, nil
			}
		}

		// Safety: max 10MB per frame
		if len(data) > 10*1024*1024 {
			return nil, fmt.Errorf("jpeg frame too large: %s bytes", strconv.Itoa(len(data)))
		}
	}
}
