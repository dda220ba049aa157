// Package analyzer computes activity statistics over archived chat history.
package analyzer

import (
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"

	"github.com/waforge/waforge/internal/chatstore"
)

// SenderCount ranks one participant's message volume.
type SenderCount struct {
	SenderJID string `json:"sender_jid"`
	PushName  string `json:"push_name,omitempty"`
	Count     int    `json:"count"`
}

// TokenCount ranks one emoji or word by frequency.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Stats is the full analysis of one message set.
type Stats struct {
	TotalMessages int `json:"total_messages"`
	TextMessages  int `json:"text_messages"`
	MediaMessages int `json:"media_messages"`
	FromMe        int `json:"from_me"`

	FirstMessageAt *time.Time `json:"first_message_at,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`

	TopSenders []SenderCount `json:"top_senders,omitempty"`
	TopEmojis  []TokenCount  `json:"top_emojis,omitempty"`
	TopWords   []TokenCount  `json:"top_words,omitempty"`

	MessagesByHour [24]int `json:"messages_by_hour"`
	BusiestHour    int     `json:"busiest_hour"`

	AvgMessageGraphemes float64 `json:"avg_message_graphemes"`
}

const defaultTopN = 10

// Short function words excluded from the word ranking.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"you": true, "your": true, "with": true, "not": true, "are": true,
	"was": true, "but": true, "have": true, "has": true, "can": true,
	"yang": true, "dan": true, "itu": true, "ini": true, "di": true,
	"ke": true, "ya": true, "ga": true, "gak": true, "aja": true,
}

// Analyze folds a message set into aggregate statistics. Messages are
// expected oldest-first, as the archive returns them.
func Analyze(messages []chatstore.Message, topN int) *Stats {
	if topN <= 0 {
		topN = defaultTopN
	}

	stats := &Stats{TotalMessages: len(messages)}
	if len(messages) == 0 {
		return stats
	}

	first := messages[0].Timestamp
	last := messages[len(messages)-1].Timestamp
	stats.FirstMessageAt = &first
	stats.LastMessageAt = &last

	senders := make(map[string]*SenderCount)
	emojis := make(map[string]int)
	words := make(map[string]int)
	var graphemeTotal, graphemeMessages int

	for i := range messages {
		msg := &messages[i]

		if msg.MediaType != "" {
			stats.MediaMessages++
		} else if msg.Kind == "text" {
			stats.TextMessages++
		}
		if msg.FromMe {
			stats.FromMe++
		}
		stats.MessagesByHour[msg.Timestamp.Local().Hour()]++

		key := msg.SenderJID
		if msg.FromMe {
			key = "me"
		}
		if sender, ok := senders[key]; ok {
			sender.Count++
		} else {
			senders[key] = &SenderCount{SenderJID: key, PushName: msg.PushName, Count: 1}
		}

		if msg.Text == "" {
			continue
		}

		// FindAll reports each distinct emoji once, so count occurrences
		// separately.
		for _, found := range gomoji.FindAll(msg.Text) {
			emojis[found.Character] += strings.Count(msg.Text, found.Character)
		}
		for _, word := range strings.Fields(strings.ToLower(msg.Text)) {
			word = strings.Trim(word, ".,!?;:\"'()[]")
			if len(word) < 3 || stopWords[word] || gomoji.ContainsEmoji(word) {
				continue
			}
			words[word]++
		}

		graphemeTotal += uniseg.GraphemeClusterCount(msg.Text)
		graphemeMessages++
	}

	for _, sender := range senders {
		stats.TopSenders = append(stats.TopSenders, *sender)
	}
	sort.Slice(stats.TopSenders, func(i, j int) bool {
		if stats.TopSenders[i].Count != stats.TopSenders[j].Count {
			return stats.TopSenders[i].Count > stats.TopSenders[j].Count
		}
		return stats.TopSenders[i].SenderJID < stats.TopSenders[j].SenderJID
	})
	if len(stats.TopSenders) > topN {
		stats.TopSenders = stats.TopSenders[:topN]
	}

	stats.TopEmojis = rankTokens(emojis, topN)
	stats.TopWords = rankTokens(words, topN)

	for hour, count := range stats.MessagesByHour {
		if count > stats.MessagesByHour[stats.BusiestHour] {
			stats.BusiestHour = hour
		}
	}

	if graphemeMessages > 0 {
		stats.AvgMessageGraphemes = float64(graphemeTotal) / float64(graphemeMessages)
	}

	return stats
}

func rankTokens(counts map[string]int, topN int) []TokenCount {
	ranked := make([]TokenCount, 0, len(counts))
	for token, count := range counts {
		ranked = append(ranked, TokenCount{Token: token, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Token < ranked[j].Token
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	if len(ranked) == 0 {
		return nil
	}
	return ranked
}
