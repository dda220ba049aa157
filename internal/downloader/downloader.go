// Package downloader saves archived media messages to local disk.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/waforge/waforge/internal/chatstore"
)

// MediaFetcher pulls the payload of one archived media message.
type MediaFetcher interface {
	Download(ctx context.Context, msg *chatstore.Message) ([]byte, string, error)
}

// ItemResult is the outcome for a single media message.
type ItemResult struct {
	MessageID string `json:"message_id"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result summarizes a download run.
type Result struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	OutputDir string       `json:"output_dir"`
	Items     []ItemResult `json:"items"`
}

// SaveAll downloads every message's media into outputDir. One failed message
// never aborts the run; it is recorded and the loop moves on.
func SaveAll(ctx context.Context, messages []chatstore.Message, outputDir string, fetcher MediaFetcher) (*Result, error) {
	if outputDir == "" {
		return nil, errors.New("output_dir is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	result := &Result{
		Total:     len(messages),
		OutputDir: outputDir,
		Items:     make([]ItemResult, 0, len(messages)),
	}

	for i := range messages {
		msg := &messages[i]
		item := ItemResult{MessageID: msg.MessageID}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, ext, err := fetcher.Download(ctx, msg)
		if err != nil {
			item.Error = err.Error()
			result.Failed++
			result.Items = append(result.Items, item)
			continue
		}

		path := filepath.Join(outputDir, FileName(msg, ext))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			item.Error = err.Error()
			result.Failed++
			result.Items = append(result.Items, item)
			continue
		}

		item.Path = path
		result.Succeeded++
		result.Items = append(result.Items, item)
	}

	return result, nil
}

// FileName builds a collision-free, sortable name for one media message.
func FileName(msg *chatstore.Message, ext string) string {
	stamp := msg.Timestamp.UTC().Format("20060102_150405")
	id := sanitizeID(msg.MessageID)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s_%s%s", stamp, id, ext)
}

func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return time.Now().UTC().Format("150405.000000000")
	}
	return b.String()
}
