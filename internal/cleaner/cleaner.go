// Package cleaner revokes the operator's own messages from a chat in
// batches, pausing between batches to stay under server rate limits.
package cleaner

import (
	"context"
	"fmt"
	"time"

	"github.com/waforge/waforge/internal/chatstore"
	"github.com/waforge/waforge/pkg/log"
)

const (
	defaultBatchSize = 100
	batchPause       = time.Second
)

// Store access and pacing go through vars so tests can swap them out.
var (
	listOwnMessages = chatstore.ListMessages
	dropArchived    = chatstore.DeleteMessage

	batchSleep = func(ctx context.Context, d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
)

// MessageDeleter revokes one message for everyone in the chat.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatJID, messageID string) error
}

type Job struct {
	ChatJID   string
	Limit     int
	BatchSize int
	DryRun    bool
}

type FailedDelete struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

type Result struct {
	DryRun   bool           `json:"dry_run"`
	Matched  int            `json:"matched"`
	Deleted  int            `json:"deleted"`
	Failed   int            `json:"failed"`
	Batches  int            `json:"batches"`
	Failures []FailedDelete `json:"failures,omitempty"`
}

// Run deletes the operator's own messages from the chat, oldest first.
// Messages are revoked on the phone and then dropped from the local
// archive. Per-message failures are recorded and the run keeps going.
func Run(ctx context.Context, deleter MessageDeleter, job Job) (*Result, error) {
	if job.ChatJID == "" {
		return nil, fmt.Errorf("chat JID cannot be empty")
	}

	batchSize := job.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	messages, err := listOwnMessages(ctx, chatstore.MessageFilter{
		ChatJID:    job.ChatJID,
		OnlyFromMe: true,
		Limit:      job.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list own messages: %w", err)
	}

	result := &Result{DryRun: job.DryRun, Matched: len(messages)}
	if job.DryRun || len(messages) == 0 {
		return result, nil
	}

	for start := 0; start < len(messages); start += batchSize {
		if start > 0 {
			if err := batchSleep(ctx, batchPause); err != nil {
				return result, err
			}
		}
		result.Batches++

		end := start + batchSize
		if end > len(messages) {
			end = len(messages)
		}

		for _, message := range messages[start:end] {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			if err := deleter.DeleteMessage(ctx, message.ChatJID, message.MessageID); err != nil {
				result.Failed++
				result.Failures = append(result.Failures, FailedDelete{MessageID: message.MessageID, Error: err.Error()})
				log.Op("clean-messages").WithError(err).
					WithField("message_id", message.MessageID).
					Warn("Failed to revoke message")
				continue
			}

			if err := dropArchived(ctx, message.ChatJID, message.MessageID); err != nil {
				log.Op("clean-messages").WithError(err).
					WithField("message_id", message.MessageID).
					Warn("Failed to drop archived copy")
			}
			result.Deleted++
		}
	}

	return result, nil
}
