// Package archiver exports one chat's archived history to a transcript
// file, either human-readable TXT or structured JSON.
package archiver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/waforge/waforge/internal/chatstore"
)

const (
	FormatTXT  = "txt"
	FormatJSON = "json"

	RangeAll       = "all"
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeCustom    = "custom"
)

type ExportSummary struct {
	ChatJID    string `json:"chat_jid"`
	Format     string `json:"format"`
	Messages   int    `json:"messages"`
	OutputPath string `json:"output_path"`
}

type transcriptEntry struct {
	MessageID string    `json:"message_id"`
	SenderJID string    `json:"sender_jid"`
	PushName  string    `json:"push_name,omitempty"`
	FromMe    bool      `json:"from_me"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	MediaType string    `json:"media_type,omitempty"`
	Text      string    `json:"text,omitempty"`
}

type transcript struct {
	ChatJID    string            `json:"chat_jid"`
	ExportedAt time.Time         `json:"exported_at"`
	Messages   []transcriptEntry `json:"messages"`
}

// ResolveRange turns a named range into concrete bounds. Custom ranges use
// the since/until dates as-is; "until" is made inclusive through the whole
// day. Local midnights anchor today/yesterday.
func ResolveRange(name string, since, until time.Time, now time.Time) (time.Time, time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(strings.TrimSpace(name)) {
	case RangeAll, "":
		return time.Time{}, time.Time{}, nil
	case RangeToday:
		return midnight, midnight.AddDate(0, 0, 1), nil
	case RangeYesterday:
		return midnight.AddDate(0, 0, -1), midnight, nil
	case RangeCustom:
		if since.IsZero() && until.IsZero() {
			return time.Time{}, time.Time{}, fmt.Errorf("custom range needs since and/or until")
		}
		if !until.IsZero() {
			until = until.AddDate(0, 0, 1)
		}
		if !since.IsZero() && !until.IsZero() && until.Before(since) {
			return time.Time{}, time.Time{}, fmt.Errorf("until cannot be before since")
		}
		return since, until, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown range %q", name)
	}
}

// Render formats the messages in the requested format.
func Render(chatJID, format string, messages []chatstore.Message, exportedAt time.Time) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatTXT, "":
		return renderTXT(chatJID, messages, exportedAt), nil
	case FormatJSON:
		return renderJSON(chatJID, messages, exportedAt)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func renderTXT(chatJID string, messages []chatstore.Message, exportedAt time.Time) []byte {
	var builder strings.Builder

	fmt.Fprintf(&builder, "Chat transcript: %s\n", chatJID)
	fmt.Fprintf(&builder, "Exported at: %s\n", exportedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&builder, "Messages: %d\n\n", len(messages))

	for _, message := range messages {
		sender := message.PushName
		if message.FromMe {
			sender = "me"
		} else if sender == "" {
			sender = message.SenderJID
		}

		body := message.Text
		if message.Kind == "media" {
			label := fmt.Sprintf("<%s>", message.MediaType)
			if body != "" {
				body = label + " " + body
			} else {
				body = label
			}
		}

		fmt.Fprintf(&builder, "[%s] %s:\n%s\n---\n", message.Timestamp.Format("2006-01-02 15:04:05"), sender, body)
	}

	return []byte(builder.String())
}

func renderJSON(chatJID string, messages []chatstore.Message, exportedAt time.Time) ([]byte, error) {
	out := transcript{
		ChatJID:    chatJID,
		ExportedAt: exportedAt,
		Messages:   make([]transcriptEntry, 0, len(messages)),
	}
	for _, message := range messages {
		out.Messages = append(out.Messages, transcriptEntry{
			MessageID: message.MessageID,
			SenderJID: message.SenderJID,
			PushName:  message.PushName,
			FromMe:    message.FromMe,
			Timestamp: message.Timestamp,
			Kind:      message.Kind,
			MediaType: message.MediaType,
			Text:      message.Text,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// DefaultOutputPath derives an export filename from the chat and format
// when the request does not name one.
func DefaultOutputPath(chatJID, format string, now time.Time) string {
	name := strings.NewReplacer("@", "_", ":", "_", "/", "_").Replace(chatJID)
	if strings.EqualFold(format, FormatJSON) {
		format = FormatJSON
	} else {
		format = FormatTXT
	}
	return fmt.Sprintf("%s_%s.%s", name, now.Format("20060102_150405"), format)
}

// WriteExport renders and writes the transcript, creating parent
// directories as needed.
func WriteExport(chatJID, format, path string, messages []chatstore.Message) (*ExportSummary, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}

	data, err := Render(chatJID, format, messages, time.Now())
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}

	if strings.EqualFold(format, FormatJSON) {
		format = FormatJSON
	} else {
		format = FormatTXT
	}

	return &ExportSummary{
		ChatJID:    chatJID,
		Format:     format,
		Messages:   len(messages),
		OutputPath: path,
	}, nil
}
