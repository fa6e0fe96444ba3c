package anim

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"time"
)

// FFmpegEncoder pipes raw RGBA frames into the system ffmpeg.
type FFmpegEncoder struct {
	EncoderName string
	Quality     int
}

func (e *FFmpegEncoder) Palettized() bool { return false }

func (e *FFmpegEncoder) Encode(ctx context.Context, frames []image.Image, path string, timing Timing) error {
	if err := checkFrames(frames, timing); err != nil {
		return err
	}

	tick, repeats := FrameRepeats(timing.Delays)
	b := frames[0].Bounds()
	tmp := partialPath(path)
	args := e.buildFFmpegArgs(b.Dx(), b.Dy(), tick, tmp)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	var writeErr error
	for i, img := range frames {
		if writeErr = writeRawRGBA(stdin, img, repeats[i]); writeErr != nil {
			break
		}
	}
	stdin.Close()

	err = cmd.Wait()
	switch {
	case writeErr != nil:
		err = fmt.Errorf("write raw error: %w", writeErr)
	case err != nil:
		err = fmt.Errorf("ffmpeg wait error: %w, output: %s", err, out.String())
	}
	return commit(tmp, path, err)
}

func (e *FFmpegEncoder) buildFFmpegArgs(width, height int, tick time.Duration, outPath string) []string {
	encoderName := e.EncoderName
	if encoderName == "" {
		encoderName = "libx264"
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("1000/%d", tick.Milliseconds()),
		"-i", "-",
		// yuv420p требует чётных размеров
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}

	// Качество в зависимости от энкодера
	switch encoderName {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	args = append(args, outPath)
	return args
}

// minTick keeps the video clock at 100 fps or below.
const minTick = 10 * time.Millisecond

// FrameRepeats expresses per-frame delays on a constant frame clock. Delays
// are rounded to multiples of minTick, the tick is their GCD and each frame
// is written delay/tick times.
func FrameRepeats(delays []time.Duration) (time.Duration, []int) {
	units := make([]int64, len(delays))
	var g int64
	for i, d := range delays {
		units[i] = int64((d + minTick/2) / minTick)
		if units[i] < 1 {
			units[i] = 1
		}
		g = gcd(g, units[i])
	}
	if g == 0 {
		g = 1
	}

	repeats := make([]int, len(delays))
	for i, u := range units {
		repeats[i] = int(u / g)
	}
	return time.Duration(g) * minTick, repeats
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func writeRawRGBA(w io.Writer, img image.Image, times int) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	for i := 0; i < times; i++ {
		if _, err := w.Write(rgba.Pix); err != nil {
			return err
		}
	}
	return nil
}
