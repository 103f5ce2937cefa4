package mcp

import "github.com/mark3labs/mcp-go/mcp"

var deckListToolDef = mcp.NewTool("deck_list",
	mcp.WithDescription("List the acting user's presentations, most recently updated first. Each entry carries its first slide for previews."),
)

var deckFetchToolDef = mcp.NewTool("deck_fetch",
	mcp.WithDescription("Fetch a presentation with all slides and elements in order."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Presentation ID")),
)

var deckCreateToolDef = mcp.NewTool("deck_create",
	mcp.WithDescription("Create a presentation with one blank slide."),
	mcp.WithString("title", mcp.Description("Title; blank becomes the default title")),
)

var deckDeleteToolDef = mcp.NewTool("deck_delete",
	mcp.WithDescription("Delete a presentation with its slides, elements and uploaded media no other deck uses."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Presentation ID")),
)

var deckGenerateToolDef = mcp.NewTool("deck_generate",
	mcp.WithDescription("Generate a presentation on a topic with the chat model. Slides get a title, bullet text and, when image generation succeeds, an illustration. Nothing is stored if generation fails."),
	mcp.WithString("prompt", mcp.Required(), mcp.Description("Topic of the presentation")),
)

var deckExportToolDef = mcp.NewTool("deck_export",
	mcp.WithDescription("Export a presentation into the exports directory and return the written path."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Presentation ID")),
	mcp.WithString("format", mcp.Description("Output format (default pptx)"), mcp.Enum("pptx", "pdf")),
)

var textTransformToolDef = mcp.NewTool("text_transform",
	mcp.WithDescription("Rewrite a piece of slide text following an instruction, e.g. shorten or make more formal."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to rewrite")),
	mcp.WithString("instruction", mcp.Required(), mcp.Description("What to do with the text")),
)

var imageSuggestToolDef = mcp.NewTool("image_suggest",
	mcp.WithDescription("Suggest an illustration prompt for slide text and try to generate the image. image_url is null when generation fails."),
	mcp.WithString("slide_text", mcp.Required(), mcp.Description("Text of the slide")),
)
