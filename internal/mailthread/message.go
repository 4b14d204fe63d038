package mailthread

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// noSubject is the representative subject for messages without one.
const noSubject = "No Subject"

// Attachment is one attachment payload lifted out of a message part.
type Attachment struct {
	Filename  string
	MIMEType  string
	ContentID string
	Payload   []byte
}

// Message is the immutable parsed form of one source file. One instance per
// file; constructed by ParseFile and never mutated afterwards.
type Message struct {
	MessageID   string
	Subject     string // normalized: prefixes stripped, whitespace collapsed
	RawSubject  string
	From        string
	To          string
	Date        time.Time // always UTC; zero when the header was absent or unparseable
	InReplyTo   string
	References  []string
	Body        string
	Attachments []Attachment
	SourcePath  string
	Defects     []string // advisory parser defects; never affect threading
}

// ReferenceCandidates returns the identities this message points at:
// In-Reply-To first, then the References list, empties dropped.
func (m *Message) ReferenceCandidates() []string {
	candidates := make([]string, 0, len(m.References)+1)
	if id := strings.TrimSpace(m.InReplyTo); id != "" {
		candidates = append(candidates, id)
	}
	for _, ref := range m.References {
		if ref = strings.TrimSpace(ref); ref != "" && ref != m.InReplyTo {
			candidates = append(candidates, ref)
		}
	}
	return candidates
}

var subjectPrefixPattern = regexp.MustCompile(`(?i)^(re|fwd?|fw)\s*:\s*`)

// NormalizeSubject strips reply/forward prefixes (repeatedly, so
// "Re: Fwd: x" reduces fully), collapses internal whitespace, and falls
// back to "No Subject" when nothing remains.
func NormalizeSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	for {
		stripped := subjectPrefixPattern.ReplaceAllString(subject, "")
		if stripped == subject {
			break
		}
		subject = strings.TrimSpace(stripped)
	}
	subject = strings.Join(strings.Fields(subject), " ")
	if subject == "" {
		return noSubject
	}
	return subject
}

// SynthesizeMessageID derives a deterministic message identity from the
// source file path for messages missing a Message-ID header. The same file
// always yields the same identity across runs and processes.
func SynthesizeMessageID(sourcePath string) string {
	token := filepath.Base(sourcePath)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(token)).String() + "@docsmith.generated"
}

// normalizeDate pins a header timestamp to UTC. Naive handling happens in
// the parser; by this point the offset is known or assumed zero.
func normalizeDate(value time.Time) time.Time {
	if value.IsZero() {
		return time.Time{}
	}
	return value.UTC()
}
