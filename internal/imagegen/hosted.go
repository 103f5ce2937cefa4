package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// Hosted calls a hosted GPT-4o image API: one submit, then a status poll
// until the task reports result URLs.
type Hosted struct {
	baseURL string
	apiKey  string
	client  *http.Client
	poller  Poller
	logger  logging.Logger
}

// NewHosted creates a hosted-API generator.
func NewHosted(cfg config.HostedConfig, client *http.Client, logger logging.Logger) *Hosted {
	return &Hosted{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		poller:  Poller{Attempts: cfg.PollAttempts, Interval: seconds(cfg.PollIntervalSeconds)},
		logger:  logger.With("provider", "hosted"),
	}
}

type hostedSubmitRequest struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Style   string `json:"style"`
}

type hostedSubmitResponse struct {
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type hostedRecordResponse struct {
	Data struct {
		SuccessFlag  int    `json:"successFlag"`
		ErrorMessage string `json:"errorMessage"`
		Message      string `json:"message"`
		Response     struct {
			ResultURLs []string `json:"resultUrls"`
		} `json:"response"`
	} `json:"data"`
}

// failureReason returns whichever of the two reason fields the API filled.
func (r *hostedRecordResponse) failureReason() string {
	if r.Data.ErrorMessage != "" {
		return r.Data.ErrorMessage
	}
	if r.Data.Message != "" {
		return r.Data.Message
	}
	return "no reason given"
}

// Generate submits prompt and polls for the first result URL.
func (h *Hosted) Generate(ctx context.Context, prompt string) (string, bool) {
	taskID, err := h.submit(ctx, prompt)
	if err != nil {
		h.logger.Warn(ctx, "image submit failed", "error", err)
		return "", false
	}

	var result string
	err = h.poller.Poll(ctx, func(ctx context.Context) (bool, error) {
		rec, err := h.record(ctx, taskID)
		if err != nil {
			return false, err
		}
		switch rec.Data.SuccessFlag {
		case 1:
			if urls := rec.Data.Response.ResultURLs; len(urls) > 0 {
				result = urls[0]
				return true, nil
			}
		case -1:
			return false, terminal("task failed: %s", rec.failureReason())
		}
		return false, nil
	})
	if err != nil {
		h.logger.Warn(ctx, "image generation failed", "task_id", taskID, "error", err)
		return "", false
	}
	return result, true
}

func (h *Hosted) submit(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(hostedSubmitRequest{
		Prompt:  prompt,
		Size:    "16:9",
		Quality: "standart",
		Style:   "natural",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/v1/gpt4o-image/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	h.authorize(req)

	var out hostedSubmitResponse
	if err := doJSON(h.client, req, &out); err != nil {
		return "", err
	}
	if out.Data.TaskID == "" {
		return "", fmt.Errorf("response has no taskId")
	}
	return out.Data.TaskID, nil
}

func (h *Hosted) record(ctx context.Context, taskID string) (*hostedRecordResponse, error) {
	u := h.baseURL + "/api/v1/gpt4o-image/record-info?" + url.Values{"taskId": {taskID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	h.authorize(req)

	var out hostedRecordResponse
	if err := doJSON(h.client, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Hosted) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
}
