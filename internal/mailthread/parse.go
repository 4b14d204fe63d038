package mailthread

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-message/mail"

	_ "github.com/emersion/go-message/charset"
)

// ParseFile reads one raw message file into a Message. Malformed input is
// never fatal: whatever fields cannot be recovered stay zero and the
// problem is recorded as an advisory defect. Only an unreadable file
// returns an error.
func ParseFile(path string) (*Message, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message file: %w", err)
	}
	return parseBytes(path, raw), nil
}

func parseBytes(path string, raw []byte) *Message {
	msg := &Message{SourcePath: path}

	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		msg.Defects = append(msg.Defects, fmt.Sprintf("create reader: %v", err))
	}
	if reader == nil {
		msg.Subject = NormalizeSubject("")
		msg.MessageID = SynthesizeMessageID(path)
		return msg
	}

	header := reader.Header

	if subject, err := header.Subject(); err == nil {
		msg.RawSubject = subject
	} else {
		msg.Defects = append(msg.Defects, fmt.Sprintf("subject: %v", err))
	}
	msg.Subject = NormalizeSubject(msg.RawSubject)

	if id, err := header.MessageID(); err == nil && strings.TrimSpace(id) != "" {
		msg.MessageID = strings.TrimSpace(id)
	} else {
		msg.MessageID = SynthesizeMessageID(path)
	}

	if ids, err := header.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		msg.InReplyTo = ids[0]
	}
	if ids, err := header.MsgIDList("References"); err == nil {
		msg.References = ids
	}

	msg.From = formatAddressList(header, "From")
	msg.To = formatAddressList(header, "To")

	if date, err := header.Date(); err == nil {
		msg.Date = normalizeDate(date)
	} else {
		msg.Defects = append(msg.Defects, fmt.Sprintf("date: %v", err))
	}

	var plain, html strings.Builder
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			msg.Defects = append(msg.Defects, fmt.Sprintf("part: %v", err))
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			mediaType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				msg.Defects = append(msg.Defects, fmt.Sprintf("part body: %v", readErr))
				continue
			}
			switch {
			case strings.HasPrefix(mediaType, "text/plain") || mediaType == "":
				plain.Write(body)
				plain.WriteByte('\n')
			case strings.HasPrefix(mediaType, "text/html"):
				html.Write(body)
				html.WriteByte('\n')
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			mediaType, _, _ := h.ContentType()
			contentID := strings.Trim(h.Get("Content-Id"), "<> \t")
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				msg.Defects = append(msg.Defects, fmt.Sprintf("attachment body: %v", readErr))
				continue
			}
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:  filename,
				MIMEType:  mediaType,
				ContentID: contentID,
				Payload:   body,
			})
		}
	}

	// Plain text wins; HTML is reduced to readable text only when no
	// text/plain part exists.
	if plain.Len() > 0 {
		msg.Body = strings.TrimSpace(plain.String())
	} else if html.Len() > 0 {
		msg.Body = strings.TrimSpace(htmlToText(html.String()))
	}

	return msg
}

func formatAddressList(header mail.Header, key string) string {
	list, err := header.AddressList(key)
	if err != nil || len(list) == 0 {
		return ""
	}
	parts := make([]string, 0, len(list))
	for _, addr := range list {
		if strings.TrimSpace(addr.Name) != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", addr.Name, addr.Address))
		} else {
			parts = append(parts, addr.Address)
		}
	}
	return strings.Join(parts, ", ")
}
