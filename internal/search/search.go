// Package search runs full-text lookups over the archived message store
// and renders the hits as an on-screen result set or a plain-text report.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/waforge/waforge/internal/chatstore"
)

const defaultLimit = 100

type Hit struct {
	ChatJID   string    `json:"chat_jid"`
	MessageID string    `json:"message_id"`
	SenderJID string    `json:"sender_jid"`
	PushName  string    `json:"push_name,omitempty"`
	FromMe    bool      `json:"from_me"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

type Result struct {
	Query      string `json:"query"`
	TotalHits  int    `json:"total_hits"`
	ChatCount  int    `json:"chat_count"`
	ReportPath string `json:"report_path,omitempty"`
	Hits       []Hit  `json:"hits"`
}

// Collect maps archived messages onto search hits. Messages without text
// (bare media) are skipped even when the store matched them on caption.
func Collect(query string, messages []chatstore.Message) Result {
	result := Result{Query: query}
	chats := make(map[string]struct{})

	for _, message := range messages {
		if strings.TrimSpace(message.Text) == "" {
			continue
		}

		result.Hits = append(result.Hits, Hit{
			ChatJID:   message.ChatJID,
			MessageID: message.MessageID,
			SenderJID: message.SenderJID,
			PushName:  message.PushName,
			FromMe:    message.FromMe,
			Timestamp: message.Timestamp,
			Text:      message.Text,
		})
		chats[message.ChatJID] = struct{}{}
	}

	result.TotalHits = len(result.Hits)
	result.ChatCount = len(chats)
	return result
}

// BuildReport renders the result set as a plain-text report grouped by chat,
// hits in chronological order within each group.
func BuildReport(result Result, generatedAt time.Time) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "Search results for %q\n", result.Query)
	fmt.Fprintf(&builder, "Generated at %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&builder, "Hits: %d across %d chat(s)\n", result.TotalHits, result.ChatCount)

	grouped := make(map[string][]Hit)
	for _, hit := range result.Hits {
		grouped[hit.ChatJID] = append(grouped[hit.ChatJID], hit)
	}

	chatJIDs := make([]string, 0, len(grouped))
	for chatJID := range grouped {
		chatJIDs = append(chatJIDs, chatJID)
	}
	sort.Strings(chatJIDs)

	for _, chatJID := range chatJIDs {
		fmt.Fprintf(&builder, "\n=== %s ===\n", chatJID)
		for _, hit := range grouped[chatJID] {
			sender := hit.PushName
			if hit.FromMe {
				sender = "me"
			} else if sender == "" {
				sender = hit.SenderJID
			}
			fmt.Fprintf(&builder, "[%s] %s: %s\n", hit.Timestamp.Format("2006-01-02 15:04"), sender, hit.Text)
		}
	}

	return builder.String()
}

// WriteReport writes the rendered report to path, creating parent
// directories as needed.
func WriteReport(result Result, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("report path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	return os.WriteFile(path, []byte(BuildReport(result, time.Now())), 0o644)
}
