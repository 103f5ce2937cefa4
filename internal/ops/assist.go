package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/slidecraft/internal/errors"
)

// TransformTextInput contains parameters for the TransformText operation.
type TransformTextInput struct {
	Text        string `json:"text"`
	Instruction string `json:"instruction"`
}

// TransformTextOutput contains the result of the TransformText operation.
type TransformTextOutput struct {
	Text string `json:"text"`
}

// TransformText rewrites text following a free-form instruction.
func TransformText(ctx context.Context, env *Env, caller Caller, input TransformTextInput) (*TransformTextOutput, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Text) == "" || strings.TrimSpace(input.Instruction) == "" {
		return nil, errors.NewInvalidRequest("text and instruction are required")
	}
	if env.Pipeline == nil {
		return nil, errors.NewInternal(fmt.Errorf("generation pipeline is not configured"))
	}

	text, err := env.Pipeline.Chat().TransformText(ctx, input.Text, input.Instruction)
	if err != nil {
		return nil, err
	}
	return &TransformTextOutput{Text: text}, nil
}

// SuggestImageInput contains parameters for the SuggestImage operation.
type SuggestImageInput struct {
	SlideText string `json:"slide_text"`
}

// SuggestImageOutput contains the result of the SuggestImage operation.
// ImageURL is nil when the prompt was produced but no image was.
type SuggestImageOutput struct {
	Prompt   string  `json:"prompt"`
	ImageURL *string `json:"image_url"`
}

// SuggestImage asks the chat model for an image prompt matching the slide
// text, then tries to generate that image.
func SuggestImage(ctx context.Context, env *Env, caller Caller, input SuggestImageInput) (*SuggestImageOutput, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.SlideText) == "" {
		return nil, errors.NewInvalidRequest("slide_text is required")
	}
	if env.Pipeline == nil {
		return nil, errors.NewInternal(fmt.Errorf("generation pipeline is not configured"))
	}

	prompt, err := env.Pipeline.Chat().SuggestImagePrompt(ctx, input.SlideText)
	if err != nil {
		return nil, err
	}

	out := &SuggestImageOutput{Prompt: prompt}
	if url, ok := env.Pipeline.Images().Generate(ctx, prompt); ok {
		out.ImageURL = &url
	}
	return out, nil
}
