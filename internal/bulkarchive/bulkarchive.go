// Package bulkarchive archives whole groups of chats in one pass based on
// selection rules (muted chats, group chats, inactive chats).
package bulkarchive

import (
	"context"
	"fmt"
	"time"

	"github.com/waforge/waforge/internal/chatstore"
	"github.com/waforge/waforge/pkg/log"
)

// ChatArchiver pushes archive and mute app-state patches for one chat.
type ChatArchiver interface {
	ArchiveChat(ctx context.Context, chatJID string, archived bool) error
	MuteChat(ctx context.Context, chatJID string, muted bool) error
}

// Rules selects which chats a bulk run archives. Rules combine with AND:
// a chat must satisfy every enabled rule to be picked. At least one rule
// must be enabled.
type Rules struct {
	MutedOnly    bool `json:"muted_only"`
	GroupsOnly   bool `json:"groups_only"`
	InactiveDays int  `json:"inactive_days"`
}

type Candidate struct {
	ChatJID       string     `json:"chat_jid"`
	Name          string     `json:"name,omitempty"`
	IsGroup       bool       `json:"is_group"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

type Result struct {
	DryRun    bool        `json:"dry_run"`
	Evaluated int         `json:"evaluated"`
	Selected  int         `json:"selected"`
	Archived  int         `json:"archived"`
	Muted     int         `json:"muted,omitempty"`
	Failed    int         `json:"failed"`
	Chats     []Candidate `json:"chats"`
}

func (r Rules) enabled() bool {
	return r.MutedOnly || r.GroupsOnly || r.InactiveDays > 0
}

func (r Rules) matches(chat chatstore.Chat, now time.Time) bool {
	if chat.Archived {
		return false
	}
	if r.MutedOnly && (chat.MutedUntil == nil || chat.MutedUntil.Before(now)) {
		return false
	}
	if r.GroupsOnly && !chat.IsGroup {
		return false
	}
	if r.InactiveDays > 0 {
		cutoff := now.AddDate(0, 0, -r.InactiveDays)
		if chat.LastMessageAt == nil || chat.LastMessageAt.After(cutoff) {
			return false
		}
	}
	return true
}

// Select evaluates the rules against every known chat and returns the ones
// a run would archive.
func Select(chats []chatstore.Chat, rules Rules, now time.Time) ([]Candidate, error) {
	if !rules.enabled() {
		return nil, fmt.Errorf("at least one rule must be enabled")
	}

	var picked []Candidate
	for _, chat := range chats {
		if !rules.matches(chat, now) {
			continue
		}
		picked = append(picked, Candidate{
			ChatJID:       chat.ChatJID,
			Name:          chat.Name,
			IsGroup:       chat.IsGroup,
			LastMessageAt: chat.LastMessageAt,
		})
	}
	return picked, nil
}

// Run selects chats per the rules and, unless dryRun is set, archives each
// of them, muting too when mute is set. Per-chat failures are recorded and
// the run keeps going.
func Run(ctx context.Context, archiver ChatArchiver, rules Rules, mute bool, dryRun bool) (*Result, error) {
	chats, err := chatstore.ListChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	picked, err := Select(chats, rules, time.Now())
	if err != nil {
		return nil, err
	}

	result := &Result{
		DryRun:    dryRun,
		Evaluated: len(chats),
		Selected:  len(picked),
		Chats:     picked,
	}
	if dryRun {
		return result, nil
	}

	for i := range result.Chats {
		candidate := &result.Chats[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := archiver.ArchiveChat(ctx, candidate.ChatJID, true); err != nil {
			candidate.Error = err.Error()
			result.Failed++
			log.Op("bulk-archive").WithError(err).
				WithField("chat_jid", candidate.ChatJID).
				Warn("Failed to archive chat")
			continue
		}

		if err := chatstore.SetChatArchived(ctx, candidate.ChatJID, true); err != nil {
			log.Op("bulk-archive").WithError(err).
				WithField("chat_jid", candidate.ChatJID).
				Warn("Failed to record archived flag")
		}
		result.Archived++

		if mute {
			if err := archiver.MuteChat(ctx, candidate.ChatJID, true); err != nil {
				log.Op("bulk-archive").WithError(err).
					WithField("chat_jid", candidate.ChatJID).
					Warn("Failed to mute chat")
				continue
			}
			result.Muted++
		}
	}

	return result, nil
}
