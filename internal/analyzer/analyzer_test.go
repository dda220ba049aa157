package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waforge/waforge/internal/chatstore"
)

func msg(sender string, fromMe bool, text string, ts time.Time) chatstore.Message {
	kind := "text"
	if text == "" {
		kind = "other"
	}
	return chatstore.Message{
		MessageID: ts.Format(time.RFC3339Nano),
		ChatJID:   "120363000000000000@g.us",
		SenderJID: sender,
		FromMe:    fromMe,
		Timestamp: ts,
		Kind:      kind,
		Text:      text,
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	stats := Analyze(nil, 5)
	assert.Zero(t, stats.TotalMessages)
	assert.Nil(t, stats.FirstMessageAt)
	assert.Nil(t, stats.TopSenders)
}

func TestAnalyzeCountsAndRanks(t *testing.T) {
	base := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	messages := []chatstore.Message{
		msg("a@s.whatsapp.net", false, "morning coffee anyone", base),
		msg("a@s.whatsapp.net", false, "coffee is ready 🎉", base.Add(time.Minute)),
		msg("b@s.whatsapp.net", false, "coffee 🎉🎉 yes", base.Add(2*time.Minute)),
		msg("", true, "on my way", base.Add(3*time.Minute)),
	}

	stats := Analyze(messages, 5)

	assert.Equal(t, 4, stats.TotalMessages)
	assert.Equal(t, 4, stats.TextMessages)
	assert.Equal(t, 1, stats.FromMe)

	require.NotNil(t, stats.FirstMessageAt)
	assert.Equal(t, base, *stats.FirstMessageAt)
	assert.Equal(t, base.Add(3*time.Minute), *stats.LastMessageAt)

	require.NotEmpty(t, stats.TopSenders)
	assert.Equal(t, "a@s.whatsapp.net", stats.TopSenders[0].SenderJID)
	assert.Equal(t, 2, stats.TopSenders[0].Count)

	require.NotEmpty(t, stats.TopEmojis)
	assert.Equal(t, "🎉", stats.TopEmojis[0].Token)
	assert.Equal(t, 3, stats.TopEmojis[0].Count)

	require.NotEmpty(t, stats.TopWords)
	assert.Equal(t, "coffee", stats.TopWords[0].Token)
	assert.Equal(t, 3, stats.TopWords[0].Count)

	assert.Positive(t, stats.AvgMessageGraphemes)
}

func TestAnalyzeMediaMessages(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m := msg("a@s.whatsapp.net", false, "", base)
	m.Kind = "media"
	m.MediaType = chatstore.MediaImage

	stats := Analyze([]chatstore.Message{m}, 5)
	assert.Equal(t, 1, stats.MediaMessages)
	assert.Zero(t, stats.TextMessages)
}

func TestAnalyzeTopNTruncates(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var messages []chatstore.Message
	senders := []string{"a", "b", "c", "d", "e"}
	for i, sender := range senders {
		messages = append(messages, msg(sender+"@s.whatsapp.net", false, "hi there", base.Add(time.Duration(i)*time.Minute)))
	}

	stats := Analyze(messages, 2)
	assert.Len(t, stats.TopSenders, 2)
}

func TestAnalyzeStopWordsExcluded(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	stats := Analyze([]chatstore.Message{
		msg("a@s.whatsapp.net", false, "the the the planning planning", base),
	}, 5)

	require.NotEmpty(t, stats.TopWords)
	assert.Equal(t, "planning", stats.TopWords[0].Token)
	for _, word := range stats.TopWords {
		assert.NotEqual(t, "the", word.Token)
	}
}

func TestAnalyzeCountsRepeatedEmojisInOneMessage(t *testing.T) {
	base := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	messages := []chatstore.Message{
		msg("a@s.whatsapp.net", false, "party time 🎉🎉🎉", base),
		msg("b@s.whatsapp.net", false, "🔥🔥 nice 🎉", base.Add(time.Minute)),
	}

	stats := Analyze(messages, 5)

	require.Len(t, stats.TopEmojis, 2)
	assert.Equal(t, "🎉", stats.TopEmojis[0].Token)
	assert.Equal(t, 4, stats.TopEmojis[0].Count)
	assert.Equal(t, "🔥", stats.TopEmojis[1].Token)
	assert.Equal(t, 2, stats.TopEmojis[1].Count)
}
