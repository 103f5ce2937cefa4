package ops

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/storage"
)

func TestUpload(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	data := pngBytes(t, 3, 3)

	out, err := Upload(ctx, te.Env, te.owner, UploadInput{Kind: "image", FileName: "Photo.PNG", Body: bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	name, ok := storage.NameFromRef(out.URL)
	if !ok || !strings.HasSuffix(name, ".png") {
		t.Fatalf("URL = %q", out.URL)
	}

	rc, err := te.Store.Open(ctx, name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, data) {
		t.Error("stored bytes differ")
	}
}

func TestUpload_Rejects(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input UploadInput
	}{
		{"unknown kind", UploadInput{Kind: "pdf", FileName: "a.pdf", Body: strings.NewReader("x")}},
		{"wrong extension", UploadInput{Kind: "image", FileName: "a.mp4", Body: strings.NewReader("x")}},
		{"no extension", UploadInput{Kind: "audio", FileName: "track", Body: strings.NewReader("x")}},
		{"no file", UploadInput{Kind: "video", FileName: "a.mp4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Upload(ctx, te.Env, te.owner, tt.input)
			assertCode(t, err, errors.ErrInvalidRequest)
		})
	}

	_, err := Upload(ctx, te.Env, Caller{}, UploadInput{Kind: "image", FileName: "a.png", Body: strings.NewReader("x")})
	assertCode(t, err, errors.ErrUnauthorized)
}

func TestUpload_SizeLimit(t *testing.T) {
	te := newTestEnv(t)
	te.Config.MaxUploadMB = 1

	big := bytes.Repeat([]byte{0}, 1<<20+1)
	_, err := Upload(context.Background(), te.Env, te.owner, UploadInput{Kind: "video", FileName: "a.mp4", Body: bytes.NewReader(big)})
	assertCode(t, err, errors.ErrInvalidRequest)

	exact := bytes.Repeat([]byte{0}, 1<<20)
	if _, err := Upload(context.Background(), te.Env, te.owner, UploadInput{Kind: "video", FileName: "a.mp4", Body: bytes.NewReader(exact)}); err != nil {
		t.Errorf("upload at the limit failed: %v", err)
	}
}
