package mailthread

import (
	"fmt"
	"log/slog"
	"strings"

	"docsmith/internal/attachments"
	"docsmith/internal/logging"
)

// RenderOptions controls thread document rendering.
type RenderOptions struct {
	SaveAttachments bool
}

// Render produces the Markdown document for a thread. Attachments are
// persisted through store (deduplicated per output directory) and the
// final filenames are listed in each message section. A nil store skips
// attachment persistence.
func Render(thread *Thread, store *attachments.Store, opts RenderOptions, logger *slog.Logger) string {
	logger = logging.NewComponentLogger(logger, "threads")

	var b strings.Builder
	fmt.Fprintf(&b, "# Thread: %s\n\n", thread.Subject)
	fmt.Fprintf(&b, "**Messages:** %d  \n", len(thread.Messages))
	fmt.Fprintf(&b, "**Source files:** %s\n\n", strings.Join(thread.SourceFiles(), ", "))

	for i, msg := range thread.Messages {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "## Message %d of %d\n\n", i+1, len(thread.Messages))
		writeField(&b, "From", msg.From)
		writeField(&b, "To", msg.To)
		if !msg.Date.IsZero() {
			writeField(&b, "Date", msg.Date.Format("2006-01-02 15:04 MST"))
		}
		writeField(&b, "Subject", msg.RawSubject)

		if len(msg.Attachments) > 0 {
			names := make([]string, 0, len(msg.Attachments))
			for _, att := range msg.Attachments {
				names = append(names, persistAttachment(att, store, opts, logger))
			}
			writeField(&b, "Attachments", strings.Join(names, ", "))
		}
		if len(msg.Defects) > 0 {
			writeField(&b, "Parse notes", strings.Join(msg.Defects, "; "))
		}

		b.WriteString("\n")
		body := strings.TrimSpace(msg.Body)
		if body == "" {
			body = "*(no body)*"
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	return b.String()
}

func persistAttachment(att Attachment, store *attachments.Store, opts RenderOptions, logger *slog.Logger) string {
	name := att.Filename
	if strings.TrimSpace(name) == "" {
		name = attachments.FallbackName(att.ContentID, att.MIMEType, att.Payload)
	}
	if store == nil || !opts.SaveAttachments {
		return name
	}
	final, err := store.Save(name, att.Payload)
	if err != nil {
		logger.Warn("attachment not saved",
			logging.String(logging.FieldEventType, "attachment_save_failed"),
			logging.String(logging.FieldFile, name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "thread document references an unsaved attachment"))
		return name
	}
	return final
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s  \n", label, value)
}
