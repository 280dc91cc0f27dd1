package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"overdub/internal/logging"
	"overdub/internal/services"
)

const stageName = "download"

// CommandRunner executes an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service fetches audio from remote URLs with yt-dlp.
type Service struct {
	binary  string
	format  string
	quality string
	runner  CommandRunner
	logger  *slog.Logger
}

// Request describes one download. When Output is empty the filename is
// derived from the remote title and written under Dir.
type Request struct {
	URL    string
	Output string
	Dir    string
}

// Result reports where the audio landed.
type Result struct {
	OutputPath string
	Title      string
}

// NewService constructs a downloader around the given yt-dlp binary.
// format is the target audio container (mp3, m4a, ...), quality the
// yt-dlp audio quality selector ("0" is best).
func NewService(binary, format, quality string, logger *slog.Logger) *Service {
	if binary == "" {
		binary = "yt-dlp"
	}
	if format == "" {
		format = "mp3"
	}
	if quality == "" {
		quality = "0"
	}
	return &Service{
		binary:  binary,
		format:  format,
		quality: quality,
		runner:  defaultRunner,
		logger:  logging.NewComponentLogger(logger, stageName),
	}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner CommandRunner) *Service {
	if runner != nil {
		s.runner = runner
	}
	return s
}

// FetchTitle asks the remote service for the media title without
// downloading anything.
func (s *Service) FetchTitle(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "title", "url required", nil)
	}
	out, err := s.runner(ctx, s.binary, "--no-playlist", "--skip-download", "--print", "title", url)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "title", url, err)
	}
	title := strings.TrimSpace(string(out))
	if title == "" {
		return "", services.Wrap(services.ErrExternalTool, stageName, "title", "empty title for "+url, nil)
	}
	return title, nil
}

// Fetch downloads the best audio stream for req.URL and writes it to
// req.Output, deriving a sanitized filename from the remote title when
// no output path is given.
func (s *Service) Fetch(ctx context.Context, req Request) (Result, error) {
	var result Result

	if strings.TrimSpace(req.URL) == "" {
		return result, services.Wrap(services.ErrValidation, stageName, "", "url required", nil)
	}

	output := req.Output
	if output == "" {
		title, err := s.FetchTitle(ctx, req.URL)
		if err != nil {
			return result, err
		}
		result.Title = title
		dir := req.Dir
		if dir == "" {
			dir = "."
		}
		output = filepath.Join(dir, SanitizeTitle(title)+"."+s.format)
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return result, services.Wrap(services.ErrTransient, stageName, "mkdir", dir, err)
		}
	}

	s.logger.Info("downloading audio",
		logging.String("url", req.URL),
		logging.String("output", output),
		logging.String("format", s.format),
	)

	args := []string{
		"--no-playlist",
		"--extract-audio",
		"--audio-format", s.format,
		"--audio-quality", s.quality,
		"--output", outputTemplate(output),
		req.URL,
	}
	if _, err := s.runner(ctx, s.binary, args...); err != nil {
		return result, services.Wrap(services.ErrExternalTool, stageName, "fetch", req.URL, err)
	}
	if _, err := os.Stat(output); err != nil {
		return result, services.Wrap(services.ErrExternalTool, stageName, "fetch", fmt.Sprintf("expected output missing: %s", output), err)
	}

	result.OutputPath = output
	s.logger.Info("download complete", logging.String("output", output))
	return result, nil
}

// outputTemplate converts a concrete output path into a yt-dlp output
// template. The extension placeholder lets yt-dlp remux to the requested
// audio format without fighting the template.
func outputTemplate(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + ".%(ext)s"
}

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	out, err := cmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		if detail != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
