// Package messaging sends single and bulk text messages with pacing that
// keeps a personal account under the radar of anti-spam heuristics.
package messaging

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// TextSender delivers one text message and returns the message ID.
type TextSender interface {
	SendText(ctx context.Context, chatJID string, message string) (string, error)
}

// BulkJob is one bulk-send run over a recipient list.
type BulkJob struct {
	Recipients    []string
	Message       string
	RatePerMinute int
	JitterSeconds int
	DryRun        bool
}

// BulkItem is the outcome for one recipient.
type BulkItem struct {
	Recipient string `json:"recipient"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

// BulkResult summarizes a bulk run.
type BulkResult struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	DryRun    bool       `json:"dry_run,omitempty"`
	Items     []BulkItem `json:"items"`
}

const defaultRatePerMinute = 10

// jitterSleep is stubbed in tests to keep them fast.
var jitterSleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SampleRecipients picks up to n recipients at random without repeats. With
// n <= 0 or n >= len(candidates) the whole list comes back, shuffled.
func SampleRecipients(candidates []string, n int) []string {
	sampled := make([]string, len(candidates))
	copy(sampled, candidates)
	rand.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	if n > 0 && n < len(sampled) {
		sampled = sampled[:n]
	}
	return sampled
}

// SendBulk delivers the message to every recipient, rate limited with random
// jitter between sends. A failed recipient is recorded and the run continues;
// duplicates in the list are sent only once.
func SendBulk(ctx context.Context, job BulkJob, sender TextSender) (*BulkResult, error) {
	if job.Message == "" {
		return nil, errors.New("message is required")
	}
	if len(job.Recipients) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	perMinute := job.RatePerMinute
	if perMinute <= 0 {
		perMinute = defaultRatePerMinute
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)

	result := &BulkResult{
		Total:  len(job.Recipients),
		DryRun: job.DryRun,
		Items:  make([]BulkItem, 0, len(job.Recipients)),
	}

	seen := make(map[string]bool, len(job.Recipients))
	for _, recipient := range job.Recipients {
		item := BulkItem{Recipient: recipient}

		if seen[recipient] {
			item.Skipped = true
			result.Items = append(result.Items, item)
			continue
		}
		seen[recipient] = true

		if job.DryRun {
			result.Succeeded++
			result.Items = append(result.Items, item)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if job.JitterSeconds > 0 {
			jitter := time.Duration(rand.Int63n(int64(job.JitterSeconds)+1)) * time.Second
			if err := jitterSleep(ctx, jitter); err != nil {
				return nil, err
			}
		}

		messageID, err := sender.SendText(ctx, recipient, job.Message)
		if err != nil {
			item.Error = err.Error()
			result.Failed++
			result.Items = append(result.Items, item)
			continue
		}

		item.MessageID = messageID
		result.Succeeded++
		result.Items = append(result.Items, item)
	}

	return result, nil
}
