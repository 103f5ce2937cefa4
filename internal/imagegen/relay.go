package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/logging"
	"github.com/hpungsan/slidecraft/internal/storage"
)

// Relay hosts images by posting them to a Telegram chat and returning the
// Bot API file URL of the largest stored size.
type Relay struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
	tempDir string
	logger  logging.Logger
}

// NewRelay creates a relay materializer. An empty tempDir uses os.TempDir.
func NewRelay(cfg config.RelayConfig, client *http.Client, tempDir string, logger logging.Logger) *Relay {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Relay{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		client:  client,
		tempDir: tempDir,
		logger:  logger.With("materializer", "relay"),
	}
}

type telegramPhotoSize struct {
	FileID   string `json:"file_id"`
	FileSize int    `json:"file_size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type telegramSendPhotoResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		Photo []telegramPhotoSize `json:"photo"`
	} `json:"result"`
}

type telegramGetFileResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		FilePath string `json:"file_path"`
	} `json:"result"`
}

// Materialize writes data to a temp file, sends it as a photo and resolves
// the file URL. The temp file is removed whatever the outcome.
func (r *Relay) Materialize(ctx context.Context, data []byte, mime string) (string, error) {
	path := filepath.Join(r.tempDir, uuid.NewString()+storage.ExtensionFor(mime))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write temp image: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn(ctx, "failed to remove temp image", "path", path, "error", err)
		}
	}()

	fileID, err := r.sendPhoto(ctx, path)
	if err != nil {
		return "", err
	}
	filePath, err := r.getFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	return r.baseURL + "/file/bot" + r.token + "/" + filePath, nil
}

func (r *Relay) sendPhoto(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("chat_id", r.chatID); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("photo", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.method("sendPhoto"), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out telegramSendPhotoResponse
	if err := doJSON(r.client, req, &out); err != nil {
		return "", fmt.Errorf("sendPhoto: %w", err)
	}
	if !out.OK || len(out.Result.Photo) == 0 {
		return "", fmt.Errorf("sendPhoto: %s", out.Description)
	}

	largest := out.Result.Photo[0]
	for _, p := range out.Result.Photo[1:] {
		if p.Width*p.Height > largest.Width*largest.Height {
			largest = p
		}
	}
	return largest.FileID, nil
}

func (r *Relay) getFile(ctx context.Context, fileID string) (string, error) {
	u := r.method("getFile") + "?" + url.Values{"file_id": {fileID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	var out telegramGetFileResponse
	if err := doJSON(r.client, req, &out); err != nil {
		return "", fmt.Errorf("getFile: %w", err)
	}
	if !out.OK || out.Result.FilePath == "" {
		return "", fmt.Errorf("getFile: %s", out.Description)
	}
	return out.Result.FilePath, nil
}

func (r *Relay) method(name string) string {
	return r.baseURL + "/bot" + r.token + "/" + name
}
