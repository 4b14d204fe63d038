package converters

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docsmith/internal/logging"
	"docsmith/internal/services"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		path string
		want Category
	}{
		{"report.docx", CategoryDocument},
		{"slides.PPTX", CategoryDocument},
		{"sheet.ods", CategoryDocument},
		{"scan.pdf", CategoryPDF},
		{"photo.JPEG", CategoryImage},
		{"diagram.tif", CategoryImage},
		{"notes.txt", CategoryText},
		{"main.go", CategoryText},
		{"index.html", CategoryText},
		{"msg.eml", CategoryEmail},
		{"archive.zip", CategoryUnsupported},
		{"video.mp4", CategoryUnsupported},
		{"noextension", CategoryUnsupported},
	}
	for _, tc := range cases {
		if got := Detect(tc.path); got != tc.want {
			t.Errorf("Detect(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}

func TestMIMEType(t *testing.T) {
	if got := MIMEType("a.pdf"); got != "application/pdf" {
		t.Errorf("pdf mime = %q", got)
	}
	if got := MIMEType("a.JPG"); got != "image/jpeg" {
		t.Errorf("jpg mime = %q", got)
	}
	if got := MIMEType("a.docx"); got != "" {
		t.Errorf("docx should have no upload mime, got %q", got)
	}
}

func TestCheckOversize(t *testing.T) {
	dir := t.TempDir()

	small := filepath.Join(dir, "small.txt")
	if err := os.WriteFile(small, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if oversize, _ := CheckOversize(small); oversize {
		t.Error("small file flagged oversize")
	}

	// 12MB PDF: under the absolute cap but past the ~20 page estimate.
	bigPDF := filepath.Join(dir, "big.pdf")
	if err := os.WriteFile(bigPDF, bytes.Repeat([]byte{0}, 12*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}
	oversize, reason := CheckOversize(bigPDF)
	if !oversize {
		t.Fatal("12MB pdf should be flagged by the page estimate")
	}
	if !strings.Contains(reason, "page") {
		t.Errorf("reason = %q, want page estimate", reason)
	}

	if oversize, _ := CheckOversize(filepath.Join(dir, "absent.pdf")); oversize {
		t.Error("stat failure must not flag oversize")
	}
}

func TestRunnerConvertWritesOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.docx.md")

	var gotName string
	var gotArgs []string
	r := NewRunner("markitdown", time.Second, logging.NewNop(),
		WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotName = name
			gotArgs = args
			return []byte("# Report\n\nconverted body\n"), nil
		}))

	if err := r.Convert(context.Background(), "/in/report.docx", out); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if gotName != "markitdown" || len(gotArgs) != 1 || gotArgs[0] != "/in/report.docx" {
		t.Errorf("command = %s %v", gotName, gotArgs)
	}
	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "# Report") {
		t.Errorf("artifact = %q", content)
	}
}

func TestRunnerConvertToolFailure(t *testing.T) {
	r := NewRunner("markitdown", time.Second, logging.NewNop(),
		WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("stderr: unsupported format"), errors.New("exit status 1")
		}))

	err := r.Convert(context.Background(), "/in/file.docx", filepath.Join(t.TempDir(), "out.md"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Errorf("want ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("tool output should be carried in the error: %v", err)
	}
}

func TestRunnerFailureCarriesStderr(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "failing-tool")
	script := "#!/bin/sh\necho 'missing dependency: exiftool' 1>&2\nexit 2\n"
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(tool, time.Second, logging.NewNop())
	_, err := r.Markdown(context.Background(), "/in/file.docx")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("want ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing dependency: exiftool") {
		t.Errorf("stderr should be carried in the error: %v", err)
	}
}

func TestRunnerConvertEmptyOutputIsFailure(t *testing.T) {
	r := NewRunner("markitdown", time.Second, logging.NewNop(),
		WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("  \n"), nil
		}))

	err := r.Convert(context.Background(), "/in/file.docx", filepath.Join(t.TempDir(), "out.md"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Errorf("empty output should be an external tool failure, got %v", err)
	}
}

func TestRunnerConvertSubprocessDeadline(t *testing.T) {
	r := NewRunner("markitdown", 20*time.Millisecond, logging.NewNop(),
		WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}))

	err := r.Convert(context.Background(), "/in/slow.pdf", filepath.Join(t.TempDir(), "out.md"))
	if !errors.Is(err, services.ErrTimeout) {
		t.Errorf("subprocess deadline should map to ErrTimeout, got %v", err)
	}
}

func TestFailureArtifact(t *testing.T) {
	artifact := FailureArtifact("/input/bad file.xlsx", CategoryDocument, errors.New("tool exploded"))
	for _, want := range []string{"# Conversion Error", "`bad file.xlsx`", "document", "tool exploded"} {
		if !strings.Contains(artifact, want) {
			t.Errorf("artifact missing %q:\n%s", want, artifact)
		}
	}
}

func TestTextArtifact(t *testing.T) {
	artifact := TextArtifact("/in/notes.txt", []byte("line one\nline two"))
	if !strings.HasPrefix(artifact, "# notes.txt\n\n```\n") {
		t.Errorf("artifact header wrong:\n%s", artifact)
	}
	if !strings.HasSuffix(artifact, "line two\n```\n") {
		t.Errorf("content should be newline-terminated inside the fence:\n%s", artifact)
	}
}
