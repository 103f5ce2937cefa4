package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// Pipeline calls a diffusion pipeline API that returns the image as
// base64. The bytes go through a Materializer to obtain a durable URL.
type Pipeline struct {
	baseURL      string
	apiKey       string
	secretKey    string
	width        int
	height       int
	client       *http.Client
	poller       Poller
	materializer Materializer
	logger       logging.Logger
}

// NewPipeline creates a pipeline-API generator.
func NewPipeline(cfg config.PipelineConfig, m Materializer, client *http.Client, logger logging.Logger) *Pipeline {
	return &Pipeline{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		secretKey:    cfg.SecretKey,
		width:        cfg.Width,
		height:       cfg.Height,
		client:       client,
		poller:       Poller{Attempts: cfg.PollAttempts, Interval: seconds(cfg.PollIntervalSeconds)},
		materializer: m,
		logger:       logger.With("provider", "pipeline"),
	}
}

type pipelineInfo struct {
	ID string `json:"id"`
}

type pipelineParams struct {
	Type           string `json:"type"`
	NumImages      int    `json:"numImages"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	GenerateParams struct {
		Query string `json:"query"`
	} `json:"generateParams"`
}

type pipelineRunResponse struct {
	UUID string `json:"uuid"`
}

type pipelineStatusResponse struct {
	Status           string `json:"status"`
	ErrorDescription string `json:"errorDescription"`
	Result           struct {
		Files    []string `json:"files"`
		Censored bool     `json:"censored"`
	} `json:"result"`
}

// Generate runs the first available pipeline on prompt, waits for the
// image and materializes it.
func (p *Pipeline) Generate(ctx context.Context, prompt string) (string, bool) {
	pipelineID, err := p.pipelineID(ctx)
	if err != nil {
		p.logger.Warn(ctx, "pipeline lookup failed", "error", err)
		return "", false
	}

	taskID, err := p.run(ctx, pipelineID, prompt)
	if err != nil {
		p.logger.Warn(ctx, "pipeline run failed", "pipeline_id", pipelineID, "error", err)
		return "", false
	}

	var image []byte
	err = p.poller.Poll(ctx, func(ctx context.Context) (bool, error) {
		st, err := p.status(ctx, taskID)
		if err != nil {
			return false, err
		}
		switch st.Status {
		case "DONE":
			if st.Result.Censored {
				return false, terminal("image was censored")
			}
			if len(st.Result.Files) == 0 {
				return false, terminal("task finished without files")
			}
			data, err := base64.StdEncoding.DecodeString(st.Result.Files[0])
			if err != nil {
				return false, terminal("decode image: %v", err)
			}
			image = data
			return true, nil
		case "FAIL":
			return false, terminal("task failed: %s", st.ErrorDescription)
		}
		return false, nil
	})
	if err != nil {
		p.logger.Warn(ctx, "image generation failed", "task_id", taskID, "error", err)
		return "", false
	}

	url, err := p.materializer.Materialize(ctx, image, http.DetectContentType(image))
	if err != nil {
		p.logger.Warn(ctx, "image materialization failed", "task_id", taskID, "error", err)
		return "", false
	}
	return url, true
}

func (p *Pipeline) pipelineID(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/key/api/v1/pipelines", nil)
	if err != nil {
		return "", err
	}
	p.authorize(req)

	var out []pipelineInfo
	if err := doJSON(p.client, req, &out); err != nil {
		return "", err
	}
	if len(out) == 0 || out[0].ID == "" {
		return "", fmt.Errorf("no pipelines available")
	}
	return out[0].ID, nil
}

func (p *Pipeline) run(ctx context.Context, pipelineID, prompt string) (string, error) {
	params := pipelineParams{Type: "GENERATE", NumImages: 1, Width: p.width, Height: p.height}
	params.GenerateParams.Query = prompt
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("pipeline_id", pipelineID); err != nil {
		return "", err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="params"`)
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(paramsJSON); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/key/api/v1/pipeline/run", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	p.authorize(req)

	var out pipelineRunResponse
	if err := doJSON(p.client, req, &out); err != nil {
		return "", err
	}
	if out.UUID == "" {
		return "", fmt.Errorf("response has no uuid")
	}
	return out.UUID, nil
}

func (p *Pipeline) status(ctx context.Context, taskID string) (*pipelineStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/key/api/v1/pipeline/status/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)

	var out pipelineStatusResponse
	if err := doJSON(p.client, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Pipeline) authorize(req *http.Request) {
	req.Header.Set("X-Key", "Key "+p.apiKey)
	req.Header.Set("X-Secret", "Secret "+p.secretKey)
}
