package extract

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

type fakeEngine struct {
	text string
	err  error

	gotPath     string
	gotLanguage string
}

func (f *fakeEngine) Name() string { return "fake-ocr" }

func (f *fakeEngine) Recognize(ctx context.Context, path, language string) (string, error) {
	f.gotPath, f.gotLanguage = path, language
	return f.text, f.err
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImageExtract(t *testing.T) {
	path := writePNG(t, 320, 240)
	eng := &fakeEngine{text: "  Total: 12.99  \n"}
	e := NewImageExtractor(ImageConfig{Language: "eng"}, nil).WithEngine(eng)

	res, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Total: 12.99" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Width != 320 || res.Height != 240 {
		t.Errorf("dims = %d x %d", res.Width, res.Height)
	}
	if eng.gotPath != path || eng.gotLanguage != "eng" {
		t.Errorf("engine called with (%q, %q)", eng.gotPath, eng.gotLanguage)
	}
	if e.Model() != "fake-ocr" {
		t.Errorf("model = %q", e.Model())
	}
}

func TestImageExtractUnsupportedExtension(t *testing.T) {
	e := NewImageExtractor(ImageConfig{}, nil).WithEngine(&fakeEngine{})
	_, err := e.Extract(context.Background(), "/inbox/drawing.svg")
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestImageExtractUndecodableContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.png")
	if err := os.WriteFile(path, []byte("this is not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := NewImageExtractor(ImageConfig{}, nil).WithEngine(&fakeEngine{})
	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestImageExtractEngineFailure(t *testing.T) {
	path := writePNG(t, 10, 10)
	e := NewImageExtractor(ImageConfig{}, nil).WithEngine(&fakeEngine{err: errors.New("no text found")})
	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrExtraction) {
		t.Fatalf("want ErrExtraction, got %v", err)
	}
}
