package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/export"
	"github.com/hpungsan/slidecraft/internal/generate"
	"github.com/hpungsan/slidecraft/internal/logging"
	"github.com/hpungsan/slidecraft/internal/ops"
	"github.com/hpungsan/slidecraft/internal/storage"
)

const actingUser = "agent@example.com"

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

type noImages struct{}

func (noImages) Generate(context.Context, string) (string, bool) { return "", false }

// testSetup creates an environment whose MCP acting user exists.
func testSetup(t *testing.T) (*ops.Env, *fakeChat) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store, err := storage.NewLocal(filepath.Join(tmpDir, "uploads"))
	if err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.SecretKey = "test-secret"
	cfg.MCP.UserEmail = actingUser

	chat := &fakeChat{}
	env := &ops.Env{
		DB:         database,
		Config:     cfg,
		Store:      store,
		Pipeline:   generate.NewPipeline(generate.NewClient(chat, nil, logging.Discard()), noImages{}, logging.Discard()),
		Exporter:   export.NewExporter(export.NewFetcher(store, nil), nil, nil, nil, logging.Discard()),
		Logger:     logging.Discard(),
		ExportsDir: filepath.Join(tmpDir, "exports"),
	}

	if _, err := ops.CreateUser(context.Background(), env, ops.CreateUserInput{Email: actingUser, Password: "secret123"}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return env, chat
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func createDeck(t *testing.T, h *Handlers, title string) string {
	t.Helper()
	result, err := h.HandleDeckCreate(context.Background(), makeRequest(map[string]any{"title": title}))
	if err != nil {
		t.Fatalf("HandleDeckCreate error: %v", err)
	}
	return parseOutput(t, result)["id"].(string)
}

func TestHandleDeckCreateAndFetch(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)
	ctx := context.Background()

	id := createDeck(t, h, "Agenda")

	result, err := h.HandleDeckFetch(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("HandleDeckFetch error: %v", err)
	}
	out := parseOutput(t, result)
	if out["title"] != "Agenda" {
		t.Errorf("title = %v", out["title"])
	}
	if slides := out["slides"].([]any); len(slides) != 1 {
		t.Errorf("len(slides) = %d, want 1", len(slides))
	}

	result, _ = h.HandleDeckFetch(ctx, makeRequest(map[string]any{"id": "missing"}))
	assertErrorCode(t, result, string(errors.ErrNotFound))
}

func TestHandleDeckList(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)

	createDeck(t, h, "One")
	createDeck(t, h, "Two")

	result, err := h.HandleDeckList(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleDeckList error: %v", err)
	}
	decks := parseOutput(t, result)["presentations"].([]any)
	if len(decks) != 2 {
		t.Errorf("len(presentations) = %d, want 2", len(decks))
	}
}

func TestHandleDeckDelete(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)
	ctx := context.Background()

	id := createDeck(t, h, "Gone")
	result, err := h.HandleDeckDelete(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("HandleDeckDelete error: %v", err)
	}
	if out := parseOutput(t, result); out["deleted"] != true {
		t.Errorf("deleted = %v", out["deleted"])
	}

	result, _ = h.HandleDeckDelete(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, string(errors.ErrNotFound))
}

func TestHandleDeckGenerate(t *testing.T) {
	env, chat := testSetup(t)
	h := NewHandlers(env)
	ctx := context.Background()

	chat.reply = `Слайд 1
Название слайда: Начало
Текст слайда: Вступление.

Слайд 2
Название слайда: Конец
Текст слайда: Выводы.
`
	result, err := h.HandleDeckGenerate(ctx, makeRequest(map[string]any{"prompt": "Океаны"}))
	if err != nil {
		t.Fatalf("HandleDeckGenerate error: %v", err)
	}
	out := parseOutput(t, result)
	if out["title"] != "Океаны" || out["slides"] != float64(2) {
		t.Errorf("out = %v", out)
	}

	chat.err = fmt.Errorf("upstream timeout")
	result, _ = h.HandleDeckGenerate(ctx, makeRequest(map[string]any{"prompt": "Реки"}))
	assertErrorCode(t, result, string(errors.ErrGenerationFailed))
	if strings.Contains(extractErrorMessage(result), "upstream timeout") {
		t.Errorf("cause leaked: %s", extractErrorMessage(result))
	}
}

func TestHandleDeckExport(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)
	ctx := context.Background()

	id := createDeck(t, h, "Report")
	result, err := h.HandleDeckExport(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("HandleDeckExport error: %v", err)
	}
	path := parseOutput(t, result)["path"].(string)
	if filepath.Dir(path) != env.ExportsDir {
		t.Errorf("path = %q, want inside %q", path, env.ExportsDir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "PK") {
		t.Error("export is not a zip package")
	}

	result, _ = h.HandleDeckExport(ctx, makeRequest(map[string]any{"id": id, "format": "pdf"}))
	assertErrorCode(t, result, string(errors.ErrConversionFailed))

	// A path argument is not part of the tool and is ignored.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove export: %v", err)
	}
	result, _ = h.HandleDeckExport(ctx, makeRequest(map[string]any{"id": id, "path": "/tmp/elsewhere.pptx"}))
	if got := parseOutput(t, result)["path"].(string); filepath.Dir(got) != env.ExportsDir {
		t.Errorf("path = %q escaped the exports dir", got)
	}
}

func TestHandleTextTransform(t *testing.T) {
	env, chat := testSetup(t)
	h := NewHandlers(env)
	ctx := context.Background()
	chat.reply = "Коротко."

	result, err := h.HandleTextTransform(ctx, makeRequest(map[string]any{"text": "Очень длинный текст", "instruction": "сократи"}))
	if err != nil {
		t.Fatalf("HandleTextTransform error: %v", err)
	}
	if out := parseOutput(t, result); out["text"] != "Коротко." {
		t.Errorf("text = %v", out["text"])
	}

	result, _ = h.HandleTextTransform(ctx, makeRequest(map[string]any{"text": "x"}))
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
}

func TestHandleImageSuggest(t *testing.T) {
	env, chat := testSetup(t)
	h := NewHandlers(env)
	chat.reply = "a lighthouse at dawn"

	result, err := h.HandleImageSuggest(context.Background(), makeRequest(map[string]any{"slide_text": "Маяки"}))
	if err != nil {
		t.Fatalf("HandleImageSuggest error: %v", err)
	}
	out := parseOutput(t, result)
	if out["prompt"] != "a lighthouse at dawn" {
		t.Errorf("prompt = %v", out["prompt"])
	}
	if out["image_url"] != nil {
		t.Errorf("image_url = %v, want null", out["image_url"])
	}
}

func TestHandlers_InvalidArguments(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)

	result, err := h.HandleDeckFetch(context.Background(), makeRequest(map[string]any{"id": 42}))
	if err != nil {
		t.Fatalf("HandleDeckFetch error: %v", err)
	}
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
}

func TestHandlers_ActingUser(t *testing.T) {
	env, _ := testSetup(t)
	ctx := context.Background()

	env.Config.MCP.UserEmail = ""
	result, _ := NewHandlers(env).HandleDeckList(ctx, makeRequest(nil))
	assertErrorCode(t, result, string(errors.ErrUnauthorized))

	env.Config.MCP.UserEmail = "ghost@example.com"
	result, _ = NewHandlers(env).HandleDeckList(ctx, makeRequest(nil))
	assertErrorCode(t, result, string(errors.ErrUnauthorized))

	env.Config.MCP.UserEmail = "  AGENT@example.com "
	result, _ = NewHandlers(env).HandleDeckList(ctx, makeRequest(nil))
	parseOutput(t, result)
}

func TestHandlers_ForeignDeck(t *testing.T) {
	env, _ := testSetup(t)
	ctx := context.Background()

	if _, err := ops.CreateUser(ctx, env, ops.CreateUserInput{Email: "human@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	human, err := ops.CallerByEmail(ctx, env, "human@example.com")
	if err != nil {
		t.Fatalf("CallerByEmail: %v", err)
	}
	d, err := ops.CreateDeck(ctx, env, human, ops.CreateDeckInput{Title: "Private"})
	if err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}

	result, _ := NewHandlers(env).HandleDeckFetch(ctx, makeRequest(map[string]any{"id": d.ID}))
	assertErrorCode(t, result, string(errors.ErrForbidden))
}

func TestServerRegistration(t *testing.T) {
	env, _ := testSetup(t)

	s := NewServer(env, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"deck_list",
		"deck_fetch",
		"deck_create",
		"deck_delete",
		"deck_generate",
		"deck_export",
		"text_transform",
		"image_suggest",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	env, _ := testSetup(t)
	env.Config.MCP.DisabledTools = []string{"deck_delete", "deck_generate", "deck_delete"}

	tools := NewServer(env, "test").ListTools()
	if len(tools) != len(toolRegistry)-2 {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry)-2)
	}
	for _, name := range []string{"deck_delete", "deck_generate"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %s should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	env, _ := testSetup(t)
	env.Config.MCP.DisabledTools = AllToolNames()

	if tools := NewServer(env, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"all valid", []string{"deck_list", "image_suggest"}, []string{}},
		{"unknown", []string{"deck_list", "note_store"}, []string{"note_store"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDisabledTools(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Fatalf("len = %d, want %d", len(names), len(toolRegistry))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}
	text := extractErrorMessage(r)
	if strings.Contains(text, "secret.db") {
		t.Errorf("internal cause leaked: %s", text)
	}
	assertErrorCode(t, r, string(errors.ErrInternal))
}

func TestErrorResult_PlainErrorBecomesInternal(t *testing.T) {
	r := errorResult(fmt.Errorf("boom"))
	assertErrorCode(t, r, string(errors.ErrInternal))
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound("presentation", "abc"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(extractErrorMessage(r)), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if result == nil || !result.IsError {
		t.Fatalf("expected error result with code %s", expectedCode)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(extractErrorMessage(result)), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload")
	}
	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
