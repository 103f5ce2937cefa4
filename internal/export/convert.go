package export

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// Converter turns a PPTX document into PDF.
type Converter interface {
	// Name is the human-readable converter name used in error messages.
	Name() string
	Convert(ctx context.Context, pptx []byte) ([]byte, error)
}

// NewConverter builds the converter selected by cfg.Kind. Temp files go to
// tempDir, or os.TempDir when empty.
func NewConverter(cfg config.ConverterConfig, tempDir string, logger logging.Logger) (Converter, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	switch cfg.Kind {
	case "", "soffice":
		return NewSoffice(cfg.Binary, tempDir, timeout, logger), nil
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("converter url is required for kind %q", cfg.Kind)
		}
		return NewHTTPConverter(cfg.URL, &http.Client{Timeout: timeout}), nil
	case "none":
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown converter kind %q", cfg.Kind)
	}
}

// Soffice converts with a headless LibreOffice.
type Soffice struct {
	binary  string
	tempDir string
	timeout time.Duration
	logger  logging.Logger
}

// NewSoffice creates a Soffice converter.
func NewSoffice(binary, tempDir string, timeout time.Duration, logger logging.Logger) *Soffice {
	if binary == "" {
		binary = "soffice"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Soffice{binary: binary, tempDir: tempDir, timeout: timeout, logger: logger}
}

func (s *Soffice) Name() string { return "LibreOffice" }

// Convert writes the deck to <uuid>.pptx, runs soffice into the same
// directory and reads back <uuid>.pdf. Temp files are always removed.
func (s *Soffice) Convert(ctx context.Context, pptx []byte) ([]byte, error) {
	id := uuid.NewString()
	in := filepath.Join(s.tempDir, id+".pptx")
	out := filepath.Join(s.tempDir, id+".pdf")
	profile := filepath.Join(s.tempDir, "lo-"+id)
	defer s.remove(ctx, in)
	defer s.remove(ctx, out)
	defer s.remove(ctx, profile)

	if err := os.WriteFile(in, pptx, 0600); err != nil {
		return nil, errors.NewConversionFailed(s.Name(), fmt.Errorf("write input: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// A private profile lets conversions run side by side.
	profileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(profile)}).String()
	cmd := exec.CommandContext(ctx, s.binary,
		"-env:UserInstallation="+profileURL,
		"--headless", "--convert-to", "pdf", "--outdir", s.tempDir, in)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		s.logger.Error(ctx, "soffice failed", "error", err, "stderr", stderr.String())
		return nil, errors.NewConversionFailed(s.Name(), err)
	}

	pdf, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.NewConversionFailed(s.Name(), fmt.Errorf("read output: %w", err))
	}
	return pdf, nil
}

func (s *Soffice) remove(ctx context.Context, path string) {
	if err := os.RemoveAll(path); err != nil {
		s.logger.Warn(ctx, "failed to remove temp file", "path", path, "error", err)
	}
}

// HTTPConverter posts the deck to a conversion service such as Gotenberg's
// LibreOffice route and reads the PDF from the response.
type HTTPConverter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPConverter creates an HTTPConverter for the full endpoint URL.
func NewHTTPConverter(endpoint string, client *http.Client) *HTTPConverter {
	return &HTTPConverter{endpoint: endpoint, client: client}
}

func (c *HTTPConverter) Name() string { return "the PDF conversion service" }

func (c *HTTPConverter) Convert(ctx context.Context, pptx []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", uuid.NewString()+".pptx")
	if err != nil {
		return nil, errors.NewConversionFailed(c.Name(), err)
	}
	if _, err := part.Write(pptx); err != nil {
		return nil, errors.NewConversionFailed(c.Name(), err)
	}
	if err := mw.Close(); err != nil {
		return nil, errors.NewConversionFailed(c.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, errors.NewConversionFailed(c.Name(), err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		var ue *url.Error
		if stderrors.As(err, &ue) {
			err = ue.Err
		}
		return nil, errors.NewConversionFailed(c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.NewConversionFailed(c.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}
	pdf, err := readLimited(resp.Body)
	if err != nil {
		return nil, errors.NewConversionFailed(c.Name(), err)
	}
	return pdf, nil
}

// Unavailable is the converter when none is configured.
type Unavailable struct{}

func (Unavailable) Name() string { return "a PDF converter" }

func (u Unavailable) Convert(context.Context, []byte) ([]byte, error) {
	return nil, errors.NewConversionFailed(u.Name(), stderrors.New("no converter configured"))
}
