package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent    []string
	failFor map[string]bool
}

func (s *fakeSender) SendText(ctx context.Context, chatJID string, message string) (string, error) {
	if s.failFor[chatJID] {
		return "", errors.New("recipient rejected the message")
	}
	s.sent = append(s.sent, chatJID)
	return "MSG-" + chatJID, nil
}

func fastJob(recipients ...string) BulkJob {
	return BulkJob{
		Recipients:    recipients,
		Message:       "hello",
		RatePerMinute: 60000,
	}
}

func TestSendBulkDeliversToEveryRecipient(t *testing.T) {
	sender := &fakeSender{}
	result, err := SendBulk(context.Background(), fastJob("a@s.whatsapp.net", "b@s.whatsapp.net", "c@s.whatsapp.net"), sender)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{"a@s.whatsapp.net", "b@s.whatsapp.net", "c@s.whatsapp.net"}, sender.sent)
	assert.Equal(t, "MSG-a@s.whatsapp.net", result.Items[0].MessageID)
}

func TestSendBulkContinuesAfterFailure(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"b@s.whatsapp.net": true}}
	result, err := SendBulk(context.Background(), fastJob("a@s.whatsapp.net", "b@s.whatsapp.net", "c@s.whatsapp.net"), sender)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.NotEmpty(t, result.Items[1].Error)
	assert.Equal(t, []string{"a@s.whatsapp.net", "c@s.whatsapp.net"}, sender.sent)
}

func TestSendBulkSkipsDuplicates(t *testing.T) {
	sender := &fakeSender{}
	result, err := SendBulk(context.Background(), fastJob("a@s.whatsapp.net", "a@s.whatsapp.net"), sender)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.True(t, result.Items[1].Skipped)
	assert.Len(t, sender.sent, 1)
}

func TestSendBulkDryRunSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	job := fastJob("a@s.whatsapp.net", "b@s.whatsapp.net")
	job.DryRun = true

	result, err := SendBulk(context.Background(), job, sender)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Succeeded)
	assert.Empty(t, sender.sent)
}

func TestSendBulkValidatesInput(t *testing.T) {
	_, err := SendBulk(context.Background(), BulkJob{Message: "hi"}, &fakeSender{})
	assert.Error(t, err)

	_, err = SendBulk(context.Background(), BulkJob{Recipients: []string{"a@s.whatsapp.net"}}, &fakeSender{})
	assert.Error(t, err)
}

func TestSendBulkHonorsCancellation(t *testing.T) {
	restore := jitterSleep
	jitterSleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	defer func() { jitterSleep = restore }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := fastJob("a@s.whatsapp.net")
	job.JitterSeconds = 1

	_, err := SendBulk(ctx, job, &fakeSender{})
	assert.Error(t, err)
}

func TestSampleRecipients(t *testing.T) {
	candidates := []string{"a", "b", "c", "d", "e"}

	sampled := SampleRecipients(candidates, 3)
	assert.Len(t, sampled, 3)
	for _, recipient := range sampled {
		assert.Contains(t, candidates, recipient)
	}

	// Requesting more than available (or zero) returns everything.
	assert.Len(t, SampleRecipients(candidates, 10), 5)
	assert.Len(t, SampleRecipients(candidates, 0), 5)
	assert.Empty(t, SampleRecipients(nil, 3))

	// The input slice is left untouched.
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, candidates)
}
