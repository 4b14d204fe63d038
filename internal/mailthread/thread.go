package mailthread

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"docsmith/internal/textutil"
)

const subjectSlugMaxLen = 60

// Thread is a reconstructed conversation. Identity for lookup purposes is
// the message identity of its founding message; Messages stays sorted
// newest-first regardless of insertion order.
type Thread struct {
	Key      string
	Subject  string // representative subject, normalized
	Messages []*Message
	sources  map[string]struct{}
}

func newThread(founder *Message) *Thread {
	t := &Thread{
		Key:     founder.MessageID,
		Subject: founder.Subject,
		sources: make(map[string]struct{}),
	}
	t.AddEmail(founder)
	return t
}

// AddEmail appends a message and re-sorts the list descending by timestamp
// so display order is always newest-first.
func (t *Thread) AddEmail(msg *Message) {
	t.Messages = append(t.Messages, msg)
	t.sources[msg.SourcePath] = struct{}{}
	sort.SliceStable(t.Messages, func(i, j int) bool {
		return t.Messages[i].Date.After(t.Messages[j].Date)
	})
}

// ContainsMessageID reports whether any message in this thread has the
// given identity.
func (t *Thread) ContainsMessageID(id string) bool {
	for _, msg := range t.Messages {
		if msg.MessageID == id {
			return true
		}
	}
	return false
}

// MatchesSubject reports whether the thread's representative subject equals
// the given normalized subject, case-insensitively.
func (t *Thread) MatchesSubject(subject string) bool {
	return strings.EqualFold(t.Subject, subject)
}

// SourceFiles returns the contributing source file names, sorted.
func (t *Thread) SourceFiles() []string {
	files := make([]string, 0, len(t.sources))
	for path := range t.sources {
		files = append(files, filepath.Base(path))
	}
	sort.Strings(files)
	return files
}

// OldestMessage returns the message with the earliest timestamp, preferring
// dated messages over undated ones.
func (t *Thread) OldestMessage() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	oldest := t.Messages[len(t.Messages)-1]
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if !t.Messages[i].Date.IsZero() {
			oldest = t.Messages[i]
			break
		}
	}
	return oldest
}

// FileName derives the output document name. A thread holding exactly one
// message from exactly one file reuses that file's base name, preserving
// 1:1 traceability; anything bigger gets a date-plus-slug name marking how
// many source files contributed.
func (t *Thread) FileName() string {
	if len(t.Messages) == 1 && len(t.sources) == 1 {
		base := filepath.Base(t.Messages[0].SourcePath)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		return base + ".thread.md"
	}

	datePart := "undated"
	if oldest := t.OldestMessage(); oldest != nil && !oldest.Date.IsZero() {
		datePart = oldest.Date.Format("20060102")
	}
	slug := textutil.Slug(t.Subject, subjectSlugMaxLen)
	return fmt.Sprintf("%s_%s_from_%d_files.thread.md", datePart, slug, len(t.sources))
}
