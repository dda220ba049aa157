package cleaner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waforge/waforge/internal/chatstore"
)

type fakeDeleter struct {
	deleted []string
	failFor map[string]bool
}

func (f *fakeDeleter) DeleteMessage(_ context.Context, _, messageID string) error {
	if f.failFor[messageID] {
		return fmt.Errorf("revoke rejected")
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func stubStore(t *testing.T, messages []chatstore.Message) {
	t.Helper()

	origList, origDrop, origSleep := listOwnMessages, dropArchived, batchSleep
	t.Cleanup(func() {
		listOwnMessages, dropArchived, batchSleep = origList, origDrop, origSleep
	})

	listOwnMessages = func(_ context.Context, filter chatstore.MessageFilter) ([]chatstore.Message, error) {
		if filter.Limit > 0 && filter.Limit < len(messages) {
			return messages[:filter.Limit], nil
		}
		return messages, nil
	}
	dropArchived = func(context.Context, string, string) error { return nil }
	batchSleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
}

func ownMessages(n int) []chatstore.Message {
	messages := make([]chatstore.Message, 0, n)
	for i := 0; i < n; i++ {
		messages = append(messages, chatstore.Message{
			MessageID: fmt.Sprintf("MSG%03d", i),
			ChatJID:   "alice@s.whatsapp.net",
			FromMe:    true,
		})
	}
	return messages
}

func TestRunDeletesInBatches(t *testing.T) {
	stubStore(t, ownMessages(7))
	deleter := &fakeDeleter{}

	result, err := Run(context.Background(), deleter, Job{ChatJID: "alice@s.whatsapp.net", BatchSize: 3})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Matched)
	assert.Equal(t, 7, result.Deleted)
	assert.Equal(t, 3, result.Batches)
	assert.Zero(t, result.Failed)
	assert.Len(t, deleter.deleted, 7)
	assert.Equal(t, "MSG000", deleter.deleted[0])
}

func TestRunContinuesAfterFailure(t *testing.T) {
	stubStore(t, ownMessages(4))
	deleter := &fakeDeleter{failFor: map[string]bool{"MSG001": true}}

	result, err := Run(context.Background(), deleter, Job{ChatJID: "alice@s.whatsapp.net"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "MSG001", result.Failures[0].MessageID)
}

func TestRunDryRunDeletesNothing(t *testing.T) {
	stubStore(t, ownMessages(5))
	deleter := &fakeDeleter{}

	result, err := Run(context.Background(), deleter, Job{ChatJID: "alice@s.whatsapp.net", DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Matched)
	assert.Zero(t, result.Deleted)
	assert.Empty(t, deleter.deleted)
}

func TestRunHonorsLimit(t *testing.T) {
	stubStore(t, ownMessages(10))
	deleter := &fakeDeleter{}

	result, err := Run(context.Background(), deleter, Job{ChatJID: "alice@s.whatsapp.net", Limit: 4})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Matched)
	assert.Equal(t, 4, result.Deleted)
}

func TestRunRequiresChatJID(t *testing.T) {
	_, err := Run(context.Background(), &fakeDeleter{}, Job{})
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	stubStore(t, ownMessages(6))
	deleter := &fakeDeleter{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, deleter, Job{ChatJID: "alice@s.whatsapp.net", BatchSize: 2})
	require.Error(t, err)
	assert.Zero(t, result.Deleted)
}
