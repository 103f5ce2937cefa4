// Package generate turns a topic into slide drafts through a chat model
// and lays them out as slides.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// ChatModel is the part of an eino chat model the client uses.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// NewOpenAIModel builds an OpenAI-compatible chat model.
func NewOpenAIModel(ctx context.Context, cfg config.ChatConfig) (ChatModel, error) {
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return m, nil
}

// Client runs the three completion operations. Each sends one system
// instruction plus the user content and returns the first completion's
// text. There is no retry; every failure is GENERATION_FAILED.
type Client struct {
	model   ChatModel
	prompts PromptSource
	logger  logging.Logger
}

// NewClient creates a Client. A nil prompts source uses the built-in
// instructions only.
func NewClient(m ChatModel, prompts PromptSource, logger logging.Logger) *Client {
	if prompts == nil {
		prompts = builtinOnly{}
	}
	return &Client{model: m, prompts: prompts, logger: logger}
}

// GenerateDeckOutline asks for a 4 to 7 slide outline on topic.
func (c *Client) GenerateDeckOutline(ctx context.Context, topic string) (string, error) {
	return c.complete(ctx, PromptDeckOutline, "Тема презентации: "+topic)
}

// TransformText rewrites text following a free-form instruction.
func (c *Client) TransformText(ctx context.Context, text, instruction string) (string, error) {
	return c.complete(ctx, PromptTransform, fmt.Sprintf("Указание: %s\nТекст:\n%s", instruction, text))
}

// SuggestImagePrompt proposes an image prompt for a slide's text.
func (c *Client) SuggestImagePrompt(ctx context.Context, slideText string) (string, error) {
	out, err := c.complete(ctx, PromptImageSuggest, slideText)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) complete(ctx context.Context, name, user string) (string, error) {
	instruction, err := c.instruction(ctx, name)
	if err != nil {
		return "", err
	}

	resp, err := c.model.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: instruction},
		{Role: schema.User, Content: user},
	})
	if err != nil {
		c.logger.Error(ctx, "chat completion failed", "prompt", name, "error", err)
		return "", errors.NewGenerationFailed(err)
	}
	if resp == nil || resp.Content == "" {
		c.logger.Error(ctx, "chat completion returned no content", "prompt", name)
		return "", errors.NewGenerationFailed(fmt.Errorf("empty completion"))
	}
	return resp.Content, nil
}

// instruction resolves an admin override, falling back to the built-in.
func (c *Client) instruction(ctx context.Context, name string) (string, error) {
	text, ok, err := c.prompts.Override(ctx, name)
	if err != nil {
		c.logger.Warn(ctx, "prompt override lookup failed, using built-in", "prompt", name, "error", err)
	} else if ok && strings.TrimSpace(text) != "" {
		return text, nil
	}
	p, ok := Builtin(name)
	if !ok {
		return "", errors.NewInternal(fmt.Errorf("unknown prompt %q", name))
	}
	return p.Text, nil
}
