package mailthread

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docsmith/internal/attachments"
)

func chainEML(i int) string {
	parent := ""
	if i > 0 {
		parent = fmt.Sprintf("In-Reply-To: <chain%d@example.com>\n", i-1)
	}
	return fmt.Sprintf(`
From: user%d@example.com
To: list@example.com
Subject: Re: Chain discussion
Date: Mon, 0%d Jan 2023 10:00:00 +0000
Message-ID: <chain%d@example.com>
%sContent-Type: text/plain

Reply number %d.
`, i, i+1, i, parent, i)
}

func TestConvertDirectoryLinearChainYieldsOneThread(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeEML(t, dir, fmt.Sprintf("%03d.eml", i), chainEML(i))
	}

	result, err := ConvertDirectory(context.Background(), dir, outDir, RenderOptions{}, nil)
	if err != nil {
		t.Fatalf("ConvertDirectory: %v", err)
	}
	if result.MessagesParsed != 5 {
		t.Errorf("MessagesParsed = %d, want 5", result.MessagesParsed)
	}
	if result.ThreadsCreated != 1 {
		t.Errorf("ThreadsCreated = %d, want 1 for a linear reply chain", result.ThreadsCreated)
	}
	if len(result.Documents) != 1 {
		t.Fatalf("Documents = %d, want 1", len(result.Documents))
	}

	doc, err := os.ReadFile(result.Documents[0])
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	// Newest-first: reply 4 appears before reply 0.
	text := string(doc)
	if strings.Index(text, "Reply number 4") > strings.Index(text, "Reply number 0") {
		t.Error("thread document should render newest message first")
	}
}

func TestConvertDirectoryDistinctSubjects(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeEML(t, dir, fmt.Sprintf("%03d.eml", i), fmt.Sprintf(`
From: u%d@example.com
Subject: Standalone topic %d
Date: Mon, 02 Jan 2023 1%d:00:00 +0000
Message-ID: <solo%d@example.com>
Content-Type: text/plain

Body %d.
`, i, i, i, i, i))
	}

	result, err := ConvertDirectory(context.Background(), dir, outDir, RenderOptions{}, nil)
	if err != nil {
		t.Fatalf("ConvertDirectory: %v", err)
	}
	if result.ThreadsCreated != 5 {
		t.Errorf("ThreadsCreated = %d, want 5 for distinct subjects", result.ThreadsCreated)
	}
	if len(result.Documents) != 5 {
		t.Errorf("Documents = %d, want 5", len(result.Documents))
	}
	// Single-message threads reuse the source base name.
	found := false
	for _, doc := range result.Documents {
		if filepath.Base(doc) == "000.thread.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 000.thread.md among %v", result.Documents)
	}
}

func TestConvertDirectoryEmpty(t *testing.T) {
	result, err := ConvertDirectory(context.Background(), t.TempDir(), t.TempDir(), RenderOptions{}, nil)
	if err != nil {
		t.Fatalf("ConvertDirectory: %v", err)
	}
	if result.ThreadsCreated != 0 || result.MessagesParsed != 0 {
		t.Errorf("empty directory should yield empty result: %+v", result)
	}
}

func TestConvertDirectorySavesAttachments(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	writeEML(t, dir, "withatt.eml", multipartEML)

	result, err := ConvertDirectory(context.Background(), dir, outDir, RenderOptions{SaveAttachments: true}, nil)
	if err != nil {
		t.Fatalf("ConvertDirectory: %v", err)
	}
	if result.AttachmentsSaved != 1 {
		t.Errorf("AttachmentsSaved = %d, want 1", result.AttachmentsSaved)
	}
	if _, err := os.Stat(filepath.Join(outDir, "invoice.pdf")); err != nil {
		t.Errorf("attachment should be written beside the thread document: %v", err)
	}
}

func TestRenderIncludesMetadataAndBody(t *testing.T) {
	thread := newThread(&Message{
		MessageID:  "r1@x",
		Subject:    "Render Check",
		RawSubject: "Re: Render Check",
		From:       "Alice <alice@example.com>",
		To:         "bob@example.com",
		Date:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Body:       "The body line.",
		SourcePath: "/in/r1.eml",
	})

	doc := Render(thread, attachments.NewStore(t.TempDir(), nil), RenderOptions{SaveAttachments: true}, nil)
	for _, fragment := range []string{
		"# Thread: Render Check",
		"**From:** Alice <alice@example.com>",
		"**To:** bob@example.com",
		"The body line.",
	} {
		if !strings.Contains(doc, fragment) {
			t.Errorf("rendered document missing %q", fragment)
		}
	}
}
