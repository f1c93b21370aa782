// filepath: internal/media/conversion.go
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"mediashelf/internal/logging"
)

var (
	// ffmpegPath holds the validated path to the executable.
	ffmpegPath string
	// ffmpegCheckOnce ensures we only look for ffmpeg once.
	ffmpegCheckOnce sync.Once
)

// Initialize sets up the path for the ffmpeg executable.
// It should be called once at startup.
func Initialize(ffmpegConfiguredPath string) {
	ffmpegCheckOnce.Do(func() {
		if ffmpegConfiguredPath != "" {
			if _, err := os.Stat(ffmpegConfiguredPath); err == nil {
				logging.Log.Infof("Using configured FFmpeg path: %s", ffmpegConfiguredPath)
				ffmpegPath = ffmpegConfiguredPath
				return
			}
			logging.Log.Warnf("Configured ffmpeg_path '%s' not found, falling back to system PATH.", ffmpegConfiguredPath)
		}

		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			logging.Log.Warn("---------------------------------------------------------")
			logging.Log.Warn("FFmpeg executable not found in configured path or system PATH.")
			logging.Log.Warn("Video thumbnails will be DISABLED.")
			logging.Log.Warn("---------------------------------------------------------")
			ffmpegPath = ""
			return
		}
		logging.Log.Infof("FFmpeg found in PATH: %s. Video thumbnails enabled.", path)
		ffmpegPath = path
	})
}

// IsFFmpegAvailable checks if the ffmpeg executable path was successfully found.
func IsFFmpegAvailable() bool {
	return ffmpegPath != ""
}

// GetFFmpegPath returns the validated path to ffmpeg.
func GetFFmpegPath() string {
	return ffmpegPath
}

// ExtractVideoFrame runs ffmpeg on a video file and returns an early frame as
// JPEG bytes, scaled to width with the aspect ratio kept.
func ExtractVideoFrame(ctx context.Context, inputPath string, width int) ([]byte, error) {
	if !IsFFmpegAvailable() {
		return nil, fmt.Errorf("ffmpeg is not available")
	}

	cmdArgs := []string{
		"-y",
		"-loglevel", "error",
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", "scale=" + strconv.Itoa(width) + ":-2",
		"-q:v", "10",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-", // Write to stdout
	}
	cmd := exec.CommandContext(ctx, GetFFmpegPath(), cmdArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Log.Debugf("Starting FFmpeg frame extraction: %s %s", GetFFmpegPath(), strings.Join(cmdArgs, " "))

	if err := cmd.Run(); err != nil {
		logging.Log.Errorf("FFmpeg execution failed: %v\nFFmpeg output:\n%s", err, stderr.String())
		return nil, fmt.Errorf("ffmpeg error: %s", strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s", inputPath)
	}
	return stdout.Bytes(), nil
}
