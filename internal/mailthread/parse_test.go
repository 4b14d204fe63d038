package mailthread

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeEML(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	// Raw RFC 5322 requires CRLF line endings.
	normalized := strings.ReplaceAll(strings.TrimLeft(content, "\n"), "\n", "\r\n")
	if err := os.WriteFile(path, []byte(normalized), 0o644); err != nil {
		t.Fatalf("write eml fixture: %v", err)
	}
	return path
}

const simpleEML = `
From: Alice Example <alice@example.com>
To: Bob Example <bob@example.com>
Subject: Re: Project Update
Date: Mon, 02 Jan 2023 15:04:05 +0000
Message-ID: <m1@example.com>
In-Reply-To: <m0@example.com>
References: <m0@example.com>
Content-Type: text/plain; charset=utf-8

Sounds good, shipping tomorrow.
`

func TestParseFileSimpleMessage(t *testing.T) {
	path := writeEML(t, t.TempDir(), "m1.eml", simpleEML)

	msg, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	if msg.MessageID != "m1@example.com" {
		t.Errorf("MessageID = %q", msg.MessageID)
	}
	if msg.Subject != "Project Update" {
		t.Errorf("Subject = %q, want normalized form", msg.Subject)
	}
	if msg.RawSubject != "Re: Project Update" {
		t.Errorf("RawSubject = %q", msg.RawSubject)
	}
	if msg.InReplyTo != "m0@example.com" {
		t.Errorf("InReplyTo = %q", msg.InReplyTo)
	}
	if len(msg.References) != 1 || msg.References[0] != "m0@example.com" {
		t.Errorf("References = %v", msg.References)
	}
	if !strings.Contains(msg.From, "alice@example.com") {
		t.Errorf("From = %q", msg.From)
	}
	if msg.Date.IsZero() {
		t.Error("Date should be parsed")
	}
	if msg.Date.Location() != msg.Date.UTC().Location() {
		t.Error("Date should be normalized to UTC")
	}
	if !strings.Contains(msg.Body, "shipping tomorrow") {
		t.Errorf("Body = %q", msg.Body)
	}
	if len(msg.Defects) != 0 {
		t.Errorf("unexpected defects: %v", msg.Defects)
	}
}

const multipartEML = `
From: carol@example.com
To: dave@example.com
Subject: Invoice attached
Date: Tue, 03 Jan 2023 10:00:00 +0000
Message-ID: <m2@example.com>
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="XYZ"

--XYZ
Content-Type: text/plain; charset=utf-8

Invoice for January attached.
--XYZ
Content-Type: application/pdf
Content-Disposition: attachment; filename="invoice.pdf"

%PDF-1.4 fake payload
--XYZ--
`

func TestParseFileMultipartAttachment(t *testing.T) {
	path := writeEML(t, t.TempDir(), "m2.eml", multipartEML)

	msg, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	if !strings.Contains(msg.Body, "Invoice for January") {
		t.Errorf("Body = %q", msg.Body)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Filename != "invoice.pdf" {
		t.Errorf("attachment filename = %q", att.Filename)
	}
	if att.MIMEType != "application/pdf" {
		t.Errorf("attachment mime = %q", att.MIMEType)
	}
	if !strings.Contains(string(att.Payload), "%PDF-1.4") {
		t.Errorf("attachment payload = %q", att.Payload)
	}
}

const htmlOnlyEML = `
From: erin@example.com
To: frank@example.com
Subject: Newsletter
Date: Wed, 04 Jan 2023 09:00:00 +0000
Message-ID: <m3@example.com>
Content-Type: text/html; charset=utf-8

<html><head><style>p{color:red}</style></head>
<body><p>Hello &amp; welcome!</p><p>Second paragraph.</p></body></html>
`

func TestParseFileHTMLFallback(t *testing.T) {
	path := writeEML(t, t.TempDir(), "m3.eml", htmlOnlyEML)

	msg, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if strings.Contains(msg.Body, "<p>") || strings.Contains(msg.Body, "color:red") {
		t.Errorf("HTML should be reduced to text, got %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "Hello & welcome!") {
		t.Errorf("Body = %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "Second paragraph.") {
		t.Errorf("Body = %q", msg.Body)
	}
}

const noIDEML = `
From: gwen@example.com
Subject: Orphan message
Date: Thu, 05 Jan 2023 09:00:00 +0000
Content-Type: text/plain

No message id here.
`

func TestParseFileSynthesizesMissingID(t *testing.T) {
	dir := t.TempDir()
	path := writeEML(t, dir, "orphan.eml", noIDEML)

	msg, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if msg.MessageID == "" {
		t.Fatal("MessageID should be synthesized")
	}
	if !strings.HasSuffix(msg.MessageID, "@docsmith.generated") {
		t.Errorf("MessageID = %q, want synthesized marker", msg.MessageID)
	}

	again, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if again.MessageID != msg.MessageID {
		t.Error("synthesized identity must be deterministic")
	}
}

func TestParseFileMalformedNeverFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.eml")
	if err := os.WriteFile(path, []byte("complete garbage\x00\x01\x02 not a message"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	msg, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile must not fail on malformed input: %v", err)
	}
	if msg.MessageID == "" {
		t.Error("malformed message still needs an identity")
	}
	if msg.Subject != "No Subject" && msg.Subject == "" {
		t.Errorf("Subject = %q", msg.Subject)
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "absent.eml")); err == nil {
		t.Fatal("expected error for unreadable file")
	}
}

func TestHTMLToText(t *testing.T) {
	in := `<div>line one<br>line two</div><script>alert(1)</script>`
	out := htmlToText(in)
	if strings.Contains(out, "alert") {
		t.Errorf("script content should be dropped: %q", out)
	}
	if !strings.Contains(out, "line one\nline two") {
		t.Errorf("breaks should become newlines: %q", out)
	}
}
