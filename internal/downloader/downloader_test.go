package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waforge/waforge/internal/chatstore"
)

type fakeFetcher struct {
	failFor map[string]bool
}

func (f fakeFetcher) Download(ctx context.Context, msg *chatstore.Message) ([]byte, string, error) {
	if f.failFor[msg.MessageID] {
		return nil, "", errors.New("media no longer available")
	}
	return []byte("payload-" + msg.MessageID), ".jpg", nil
}

func mediaMessage(id string, ts time.Time) chatstore.Message {
	return chatstore.Message{
		MessageID: id,
		ChatJID:   "628112222333@s.whatsapp.net",
		Timestamp: ts,
		Kind:      "media",
		MediaType: chatstore.MediaImage,
	}
}

func TestSaveAllWritesFilesAndToleratesFailures(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	messages := []chatstore.Message{
		mediaMessage("AAA111", base),
		mediaMessage("BBB222", base.Add(time.Minute)),
		mediaMessage("CCC333", base.Add(2*time.Minute)),
	}

	result, err := SaveAll(context.Background(), messages, dir, fakeFetcher{
		failFor: map[string]bool{"BBB222": true},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Items, 3)

	assert.NotEmpty(t, result.Items[0].Path)
	assert.NotEmpty(t, result.Items[1].Error)
	assert.Empty(t, result.Items[1].Path)
	assert.NotEmpty(t, result.Items[2].Path)

	data, err := os.ReadFile(result.Items[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "payload-AAA111", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSaveAllCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "media")
	result, err := SaveAll(context.Background(), nil, dir, fakeFetcher{})
	require.NoError(t, err)
	assert.Zero(t, result.Total)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveAllRequiresOutputDir(t *testing.T) {
	_, err := SaveAll(context.Background(), nil, "", fakeFetcher{})
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	msg := mediaMessage("3EB0/12=AB", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	name := FileName(&msg, ".png")
	assert.Equal(t, "20260102_030405_3EB0_12_AB.png", name)

	name = FileName(&msg, "")
	assert.Equal(t, "20260102_030405_3EB0_12_AB.bin", name)
}
