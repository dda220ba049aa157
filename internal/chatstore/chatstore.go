package chatstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Chat is one conversation known to the local archive.
type Chat struct {
	ChatJID       string     `json:"chat_jid"`
	Name          string     `json:"name,omitempty"`
	IsGroup       bool       `json:"is_group"`
	Archived      bool       `json:"archived"`
	MutedUntil    *time.Time `json:"muted_until,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	MessageCount  int        `json:"message_count,omitempty"`
}

// Message is one archived message. Raw holds the marshaled wire message so
// media can be re-downloaded long after the event was received.
type Message struct {
	MessageID string    `json:"message_id"`
	ChatJID   string    `json:"chat_jid"`
	SenderJID string    `json:"sender_jid"`
	PushName  string    `json:"push_name,omitempty"`
	FromMe    bool      `json:"from_me"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text,omitempty"`
	MediaType string    `json:"media_type,omitempty"`
	Raw       []byte    `json:"-"`
}

// Media kinds recorded in the media_type column.
const (
	MediaImage    = "image"
	MediaVideo    = "video"
	MediaAudio    = "audio"
	MediaDocument = "document"
	MediaSticker  = "sticker"
)

var (
	archiveDB   *sql.DB
	archiveOnce sync.Once
	archiveErr  error

	archiveDriver string
	archiveDSN    string
)

// Configure records the datastore coordinates before the first Open call.
func Configure(driver string, dsn string) {
	archiveDriver = driver
	archiveDSN = dsn
}

// Open returns the shared archive handle, creating the schema on first use.
func Open() (*sql.DB, error) {
	archiveOnce.Do(func() {
		if archiveDriver == "" || archiveDSN == "" {
			archiveErr = errors.New("chat archive datastore configuration not initialized")
			return
		}
		if archiveDriver != "pgx" {
			archiveErr = errors.New("unsupported datastore driver for chat archive: " + archiveDriver)
			return
		}
		db, err := sql.Open(archiveDriver, archiveDSN)
		if err != nil {
			archiveErr = err
			return
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(10 * time.Minute)
		db.SetConnMaxIdleTime(3 * time.Minute)
		if err = db.Ping(); err != nil {
			archiveErr = err
			return
		}
		if err = ensureSchema(db); err != nil {
			archiveErr = err
			return
		}
		archiveDB = db
	})
	return archiveDB, archiveErr
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS wa_chats (
		chat_jid TEXT PRIMARY KEY,
		name TEXT DEFAULT '',
		is_group BOOLEAN DEFAULT FALSE,
		archived BOOLEAN DEFAULT FALSE,
		muted_until TIMESTAMPTZ,
		last_message_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS wa_messages (
		message_id TEXT NOT NULL,
		chat_jid TEXT NOT NULL,
		sender_jid TEXT DEFAULT '',
		push_name TEXT DEFAULT '',
		from_me BOOLEAN DEFAULT FALSE,
		timestamp TIMESTAMPTZ NOT NULL,
		kind TEXT DEFAULT 'text',
		text TEXT DEFAULT '',
		media_type TEXT DEFAULT '',
		raw BYTEA,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (message_id, chat_jid)
	)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_wa_messages_chat_ts ON wa_messages (chat_jid, timestamp DESC)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_wa_messages_media ON wa_messages (chat_jid, media_type) WHERE media_type <> ''`)
	return err
}

// SaveMessage upserts one message and refreshes the chat's activity row.
func SaveMessage(ctx context.Context, msg Message) error {
	db, err := Open()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO wa_messages (message_id, chat_jid, sender_jid, push_name, from_me, timestamp, kind, text, media_type, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (message_id, chat_jid) DO UPDATE SET
			text = EXCLUDED.text,
			kind = EXCLUDED.kind,
			media_type = EXCLUDED.media_type,
			raw = EXCLUDED.raw
	`, msg.MessageID, msg.ChatJID, msg.SenderJID, msg.PushName, msg.FromMe, msg.Timestamp, msg.Kind, msg.Text, msg.MediaType, msg.Raw)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO wa_chats (chat_jid, is_group, last_message_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_jid) DO UPDATE SET
			last_message_at = GREATEST(wa_chats.last_message_at, EXCLUDED.last_message_at),
			updated_at = CURRENT_TIMESTAMP
	`, msg.ChatJID, strings.HasSuffix(msg.ChatJID, "@g.us"), msg.Timestamp)
	return err
}

// DeleteMessage removes one message from the archive.
func DeleteMessage(ctx context.Context, chatJID string, messageID string) error {
	db, err := Open()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM wa_messages WHERE chat_jid = $1 AND message_id = $2`, chatJID, messageID)
	return err
}

// UpsertChat records chat metadata without touching message rows.
func UpsertChat(ctx context.Context, chat Chat) error {
	db, err := Open()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO wa_chats (chat_jid, name, is_group, archived, muted_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chat_jid) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE wa_chats.name END,
			archived = EXCLUDED.archived,
			muted_until = EXCLUDED.muted_until,
			updated_at = CURRENT_TIMESTAMP
	`, chat.ChatJID, chat.Name, chat.IsGroup, chat.Archived, chat.MutedUntil)
	return err
}

// SetChatArchived flips the local archived flag for one chat.
func SetChatArchived(ctx context.Context, chatJID string, archived bool) error {
	db, err := Open()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO wa_chats (chat_jid, is_group, archived)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_jid) DO UPDATE SET
			archived = EXCLUDED.archived,
			updated_at = CURRENT_TIMESTAMP
	`, chatJID, strings.HasSuffix(chatJID, "@g.us"), archived)
	return err
}

// GetMessage fetches one archived message including its raw payload.
func GetMessage(ctx context.Context, chatJID string, messageID string) (*Message, error) {
	db, err := Open()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `
		SELECT message_id, chat_jid, sender_jid, push_name, from_me, timestamp, kind, text, media_type, raw
		FROM wa_messages WHERE chat_jid = $1 AND message_id = $2
	`, chatJID, messageID)
	return scanMessage(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*Message, error) {
	var msg Message
	err := row.Scan(&msg.MessageID, &msg.ChatJID, &msg.SenderJID, &msg.PushName, &msg.FromMe,
		&msg.Timestamp, &msg.Kind, &msg.Text, &msg.MediaType, &msg.Raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("message not found in chat archive")
		}
		return nil, err
	}
	return &msg, nil
}

// MessageFilter bounds archive queries. Zero values mean unbounded.
type MessageFilter struct {
	ChatJID    string
	SenderJID  string
	Since      time.Time
	Until      time.Time
	OnlyFromMe bool
	OnlyMedia  bool
	MediaTypes []string
	Contains   string
	Limit      int
}

// ListMessages returns archived messages matching the filter, oldest first.
func ListMessages(ctx context.Context, filter MessageFilter) ([]Message, error) {
	db, err := Open()
	if err != nil {
		return nil, err
	}

	query := strings.Builder{}
	query.WriteString(`
		SELECT message_id, chat_jid, sender_jid, push_name, from_me, timestamp, kind, text, media_type, raw
		FROM wa_messages WHERE 1=1`)
	args := make([]interface{}, 0, 6)

	appendArg := func(clause string, value interface{}) {
		args = append(args, value)
		query.WriteString(strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if filter.ChatJID != "" {
		appendArg(" AND chat_jid = ?", filter.ChatJID)
	}
	if filter.SenderJID != "" {
		appendArg(" AND sender_jid = ?", filter.SenderJID)
	}
	if !filter.Since.IsZero() {
		appendArg(" AND timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		appendArg(" AND timestamp < ?", filter.Until)
	}
	if filter.OnlyFromMe {
		query.WriteString(" AND from_me = TRUE")
	}
	if filter.OnlyMedia {
		query.WriteString(" AND media_type <> ''")
	}
	if len(filter.MediaTypes) > 0 {
		placeholders := make([]string, 0, len(filter.MediaTypes))
		for _, mediaType := range filter.MediaTypes {
			args = append(args, mediaType)
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		query.WriteString(" AND media_type IN (" + strings.Join(placeholders, ", ") + ")")
	}
	if filter.Contains != "" {
		appendArg(" AND text ILIKE ?", "%"+filter.Contains+"%")
	}

	query.WriteString(" ORDER BY timestamp ASC")
	if filter.Limit > 0 {
		appendArg(" LIMIT ?", filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

// ListChats returns all chats with their archived message counts.
func ListChats(ctx context.Context) ([]Chat, error) {
	db, err := Open()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT c.chat_jid, c.name, c.is_group, c.archived, c.muted_until, c.last_message_at,
			(SELECT COUNT(*) FROM wa_messages m WHERE m.chat_jid = c.chat_jid) AS message_count
		FROM wa_chats c
		ORDER BY c.last_message_at DESC NULLS LAST
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var chat Chat
		if err := rows.Scan(&chat.ChatJID, &chat.Name, &chat.IsGroup, &chat.Archived,
			&chat.MutedUntil, &chat.LastMessageAt, &chat.MessageCount); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// LastSeenBySender maps each sender JID to its most recent message timestamp,
// used to spot stale contacts.
func LastSeenBySender(ctx context.Context) (map[string]time.Time, error) {
	db, err := Open()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT sender_jid, MAX(timestamp)
		FROM wa_messages
		WHERE from_me = FALSE AND sender_jid <> ''
		GROUP BY sender_jid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lastSeen := make(map[string]time.Time)
	for rows.Next() {
		var sender string
		var ts time.Time
		if err := rows.Scan(&sender, &ts); err != nil {
			return nil, err
		}
		lastSeen[sender] = ts
	}
	return lastSeen, rows.Err()
}

// PruneMessagesBefore deletes archived messages older than the cutoff and
// returns how many rows were removed.
func PruneMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := Open()
	if err != nil {
		return 0, err
	}
	result, err := db.ExecContext(ctx, `DELETE FROM wa_messages WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
