package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoProject is returned when a directory holds no project files.
var ErrNoProject = errors.New("system: no project files found")

// ProjectExtensions are the file extensions recognised as text projects.
var ProjectExtensions = []string{".yaml", ".yml"}

// FindLatestProject returns the most recently modified project file in dir.
// The tool config file is never picked.
func FindLatestProject(dir string, skip ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("system: %w", err)
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !IsProjectFile(f.Name()) || contains(skip, f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("%w in %s", ErrNoProject, dir)
	}
	return latestFile, nil
}

// IsProjectFile reports whether name has a project extension.
func IsProjectFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return contains(ProjectExtensions, ext)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// hardwareEncoders are tried in order before falling back to libx264.
var hardwareEncoders = []string{"h264_videotoolbox", "h264_nvenc"}

// BestH264Encoder asks ffmpeg which encoders it was built with and picks the
// first hardware H.264 encoder, or libx264.
func BestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		for _, enc := range hardwareEncoders {
			if fields[1] == enc {
				return enc
			}
		}
	}
	return "libx264"
}
