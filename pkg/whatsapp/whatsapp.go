package whatsapp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	qrCode "github.com/skip2/go-qrcode"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/waforge/waforge/internal/chatstore"
	"github.com/waforge/waforge/pkg/env"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/validation"
)

var WhatsAppDatastore *sqlstore.Container

var (
	clientMu               sync.RWMutex
	whatsAppClient         *whatsmeow.Client
	WhatsAppClientProxyURL string
	datastoreDriver        string
	datastoreDSN           string
	archiveIncoming        bool

	// Companion app version override, set from environment when provided.
	version struct {
		Major int
		Minor int
		Patch int
	}
)

const (
	qrChannelWaitTimeout    = 2 * time.Minute
	pairPhoneRequestTimeout = 90 * time.Second
	logoutRequestTimeout    = 30 * time.Second
)

// InitDatastore opens the session datastore and the chat archive from the
// environment. Called once from main before any client use; importing this
// package alone touches neither env nor database.
func InitDatastore() {
	var err error

	dbType, err := env.GetEnvString("WHATSAPP_DATASTORE_TYPE")
	if err != nil {
		log.Print(nil).WithError(err).Fatal("Error parsing WHATSAPP_DATASTORE_TYPE")
	}

	dbURI, err := env.GetEnvString("WHATSAPP_DATASTORE_URI")
	if err != nil {
		log.Print(nil).WithError(err).Fatal("Error parsing WHATSAPP_DATASTORE_URI")
	}

	normalizedDriver := normalizeDatastoreDriver(dbType)
	dbURI = normalizeDatastoreDSN(normalizedDriver, dbURI)

	datastoreDriver = normalizedDriver
	datastoreDSN = dbURI

	log.Print(nil).Info("Initializing WhatsApp datastore with driver=" + normalizedDriver)

	datastore, err := sqlstore.New(context.Background(), normalizedDriver, dbURI, nil)
	if err != nil {
		log.Print(nil).WithError(err).Fatal("Failed to initialize WhatsApp client datastore")
	}

	WhatsAppClientProxyURL, _ = env.GetEnvString("WHATSAPP_CLIENT_PROXY_URL")
	if WhatsAppClientProxyURL != "" {
		if err := validation.ValidateURL(WhatsAppClientProxyURL); err != nil {
			log.Print(nil).WithError(err).Warn("Ignoring invalid WHATSAPP_CLIENT_PROXY_URL")
			WhatsAppClientProxyURL = ""
		}
	}
	archiveIncoming = env.GetEnvBoolOrDefault("WHATSAPP_CHAT_ARCHIVE", true)

	WhatsAppDatastore = datastore

	if err := datastore.Upgrade(context.Background()); err != nil {
		log.Print(nil).WithError(err).Fatal("Failed to upgrade datastore schema")
	}

	chatstore.Configure(datastoreDriver, datastoreDSN)
	if archiveIncoming {
		if _, err := chatstore.Open(); err != nil {
			log.Print(nil).WithError(err).Fatal("Error initializing chat archive datastore")
		}
	}

	log.Print(nil).Info("database is ok")
}

func normalizeDatastoreDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "postgresql", "postgres", "pgx":
		return "pgx"
	default:
		return strings.ToLower(driver)
	}
}

func normalizeDatastoreDSN(driver string, dsn string) string {
	if driver != "pgx" {
		return dsn
	}
	appendParam := func(current string, key string, value string) string {
		if strings.Contains(current, key+"=") {
			return current
		}
		separator := "?"
		if strings.Contains(current, "?") {
			if strings.HasSuffix(current, "?") || strings.HasSuffix(current, "&") {
				separator = ""
			} else {
				separator = "&"
			}
		}
		return current + separator + key + "=" + value
	}
	dsn = appendParam(dsn, "prefer_simple_protocol", "true")
	dsn = appendParam(dsn, "statement_cache_capacity", "0")
	dsn = appendParam(dsn, "default_query_exec_mode", "simple_protocol")
	return dsn
}

func getClient() *whatsmeow.Client {
	clientMu.RLock()
	defer clientMu.RUnlock()
	return whatsAppClient
}

func setClient(client *whatsmeow.Client) {
	clientMu.Lock()
	whatsAppClient = client
	clientMu.Unlock()
}

func currentClient() (*whatsmeow.Client, error) {
	client := getClient()
	if client == nil {
		return nil, errors.New("WhatsApp Client is not Valid")
	}
	return client, nil
}

func maskJIDForLog(jid string) string {
	if len(jid) < 4 {
		return jid
	}
	return jid[0:len(jid)-4] + "xxxx"
}

// WhatsAppInitClient builds the session client around the stored device. With
// a nil device a fresh one is created and must be paired via QR or phone code.
func WhatsAppInitClient(device *store.Device) {
	var err error

	if getClient() == nil {
		if device == nil {
			device = WhatsAppDatastore.NewDevice()
		}

		store.DeviceProps.Os = proto.String(runtime.GOOS)
		store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()
		store.DeviceProps.RequireFullSync = proto.Bool(false)

		version.Major, err = env.GetEnvInt("WHATSAPP_VERSION_MAJOR")
		if err == nil {
			store.DeviceProps.Version.Primary = proto.Uint32(uint32(version.Major))
		}
		version.Minor, err = env.GetEnvInt("WHATSAPP_VERSION_MINOR")
		if err == nil {
			store.DeviceProps.Version.Secondary = proto.Uint32(uint32(version.Minor))
		}
		version.Patch, err = env.GetEnvInt("WHATSAPP_VERSION_PATCH")
		if err == nil {
			store.DeviceProps.Version.Tertiary = proto.Uint32(uint32(version.Patch))
		}

		client := whatsmeow.NewClient(device, nil)

		if len(WhatsAppClientProxyURL) > 0 {
			client.SetProxyAddress(WhatsAppClientProxyURL)
		}

		client.EnableAutoReconnect = true
		client.AutoTrustIdentity = true

		client.AddEventHandler(handleWhatsAppEvents)

		setClient(client)
	}
}

func handleWhatsAppEvents(evt interface{}) {
	switch e := evt.(type) {
	case *events.LoggedOut:
		client, err := currentClient()
		if err == nil {
			client.Disconnect()
		}
		setClient(nil)
	case *events.StreamReplaced:
		client, err := currentClient()
		if err == nil {
			client.Disconnect()
		}
		setClient(nil)
	case *events.Connected:
		log.Print(nil).Info("Client connected: " + maskJIDForLog(WhatsAppSessionJID()))
	case *events.Disconnected:
		log.Print(nil).Warn("Client disconnected: " + maskJIDForLog(WhatsAppSessionJID()))
	case *events.Message:
		archiveMessageEvent(e)
	case *events.Archive:
		if archiveIncoming {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = chatstore.SetChatArchived(ctx, e.JID.String(), e.Action.GetArchived())
			cancel()
		}
	case *events.Mute:
		if archiveIncoming {
			chat := chatstore.Chat{
				ChatJID: e.JID.String(),
				IsGroup: e.JID.Server == types.GroupServer,
			}
			if e.Action.GetMuted() {
				mutedUntil := time.Unix(e.Action.GetMuteEndTimestamp(), 0)
				chat.MutedUntil = &mutedUntil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = chatstore.UpsertChat(ctx, chat)
			cancel()
		}
	case *events.KeepAliveTimeout:
		log.Print(nil).Warn(fmt.Sprintf("Client keepalive timeout, errors=%d, lastSuccess=%s", e.ErrorCount, e.LastSuccess.Format(time.RFC3339)))
	case *events.TemporaryBan:
		log.Print(nil).Error(fmt.Sprintf("Client temporarily banned, reason=%s, expires=%s", e.Code, e.Expire))
	case *events.ConnectFailure:
		log.Print(nil).Error(fmt.Sprintf("Client connection failure, reason=%s, message=%s", e.Reason, e.Message))
	}
}

// archiveMessageEvent mirrors an incoming or device-synced message into the
// local chat archive, raw payload included so media can be fetched later.
func archiveMessageEvent(e *events.Message) {
	if !archiveIncoming || e.Message == nil {
		return
	}

	// Revokes remove the target message from the archive instead of adding a
	// row for the protocol message itself.
	if e.Message.ProtocolMessage != nil && e.Message.ProtocolMessage.GetType() == waE2E.ProtocolMessage_REVOKE {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		revokedID := e.Message.ProtocolMessage.GetKey().GetID()
		if err := chatstore.DeleteMessage(ctx, e.Info.Chat.String(), revokedID); err != nil {
			log.Op("chat-archive").WithError(err).Warn("Failed to drop revoked message")
		}
		return
	}

	kind, text, mediaType := describeMessage(e.Message)
	raw, err := proto.Marshal(e.Message)
	if err != nil {
		log.Op("chat-archive").WithError(err).Warn("Failed to marshal message payload")
		raw = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = chatstore.SaveMessage(ctx, chatstore.Message{
		MessageID: e.Info.ID,
		ChatJID:   e.Info.Chat.String(),
		SenderJID: e.Info.Sender.ToNonAD().String(),
		PushName:  e.Info.PushName,
		FromMe:    e.Info.IsFromMe,
		Timestamp: e.Info.Timestamp,
		Kind:      kind,
		Text:      text,
		MediaType: mediaType,
		Raw:       raw,
	})
	if err != nil {
		log.Op("chat-archive").WithError(err).Warn("Failed to archive message")
	}
}

// describeMessage classifies a wire message for the archive.
func describeMessage(msg *waE2E.Message) (kind string, text string, mediaType string) {
	switch {
	case msg.GetConversation() != "":
		return "text", msg.GetConversation(), ""
	case msg.ExtendedTextMessage != nil:
		return "text", msg.ExtendedTextMessage.GetText(), ""
	case msg.ImageMessage != nil:
		return "media", msg.ImageMessage.GetCaption(), chatstore.MediaImage
	case msg.VideoMessage != nil:
		return "media", msg.VideoMessage.GetCaption(), chatstore.MediaVideo
	case msg.AudioMessage != nil:
		return "media", "", chatstore.MediaAudio
	case msg.DocumentMessage != nil:
		return "media", msg.DocumentMessage.GetFileName(), chatstore.MediaDocument
	case msg.StickerMessage != nil:
		return "media", "", chatstore.MediaSticker
	default:
		return "other", "", ""
	}
}

func WhatsAppGenerateQR(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) (string, int, bool, error) {
	for {
		select {
		case <-ctx.Done():
			return "", 0, false, ctx.Err()
		case evt, ok := <-qrChan:
			if !ok {
				return "", 0, false, errors.New("whatsapp qr channel closed before delivering a code")
			}
			switch {
			case evt.Event == "code":
				qrPNG, err := qrCode.Encode(evt.Code, qrCode.Medium, 256)
				if err != nil {
					return "", 0, false, err
				}
				timeout := int(evt.Timeout.Seconds())
				return base64.StdEncoding.EncodeToString(qrPNG), timeout, false, nil
			case evt.Event == whatsmeow.QRChannelSuccess.Event:
				return "", 0, true, nil
			case evt.Event == whatsmeow.QRChannelTimeout.Event:
				return "", 0, false, errors.New("whatsapp qr channel timed out")
			case evt.Event == whatsmeow.QRChannelErrUnexpectedEvent.Event:
				return "", 0, false, errors.New("whatsapp qr channel entered an unexpected state")
			case evt.Event == whatsmeow.QRChannelClientOutdated.Event:
				return "", 0, false, ErrWAVersionOutdatedForQR
			case evt.Event == whatsmeow.QRChannelScannedWithoutMultidevice.Event:
				return "", 0, false, errors.New("whatsapp qr scanned without multi-device enabled")
			case evt.Event == "error":
				if evt.Error != nil {
					return "", 0, false, evt.Error
				}
				return "", 0, false, errors.New("whatsapp qr channel reported an unspecified error")
			}
		}
	}
}

func WhatsAppLogin() (string, int, error) {
	client, err := currentClient()
	if err != nil {
		return "", 0, err
	}

	client.Disconnect()

	if client.Store.ID == nil {
		ctx, cancel := context.WithTimeout(context.Background(), qrChannelWaitTimeout)
		defer cancel()

		qrChanGenerate, err := client.GetQRChannel(ctx)
		if err != nil {
			return "", 0, err
		}

		err = client.Connect()
		if err != nil {
			return "", 0, err
		}

		qrImage, qrTimeout, paired, err := WhatsAppGenerateQR(ctx, qrChanGenerate)
		if err != nil {
			return "", 0, err
		}
		if paired {
			return "WhatsApp Client is already paired", 0, nil
		}

		return "data:image/png;base64," + qrImage, qrTimeout, nil
	}

	err = WhatsAppReconnect()
	if err != nil {
		return "", 0, err
	}

	return "WhatsApp Client is Reconnected", 0, nil
}

func WhatsAppLoginPair(phone string) (string, int, error) {
	client, err := currentClient()
	if err != nil {
		return "", 0, err
	}

	client.Disconnect()

	if client.Store.ID == nil {
		ctx, cancel := context.WithTimeout(context.Background(), pairPhoneRequestTimeout)
		defer cancel()

		err = client.Connect()
		if err != nil {
			return "", 0, err
		}

		code, err := client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome ("+runtime.GOOS+")")
		if err != nil {
			return "", 0, err
		}

		return code, 160, nil
	}

	err = WhatsAppReconnect()
	if err != nil {
		return "", 0, err
	}

	return "WhatsApp Client is Reconnected", 0, nil
}

func WhatsAppReconnect() error {
	client, err := currentClient()
	if err != nil {
		return err
	}

	client.Disconnect()

	if client.Store.ID != nil {
		err = client.Connect()
		if err != nil {
			return err
		}

		return nil
	}

	return errors.New("WhatsApp Client Store ID is Empty, Please Re-Login and Scan QR Code Again")
}

func WhatsAppLogout() error {
	client, err := currentClient()
	if err != nil {
		return err
	}

	if client.Store.ID != nil {
		WhatsAppPresence(context.Background(), false)

		logoutCtx, logoutCancel := context.WithTimeout(context.Background(), logoutRequestTimeout)
		defer logoutCancel()

		err = client.Logout(logoutCtx)
		if err != nil {
			client.Disconnect()
			storeCtx, storeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer storeCancel()
			err = client.Store.Delete(storeCtx)
			if err != nil {
				return err
			}
		}

		setClient(nil)

		return nil
	}

	return errors.New("WhatsApp Client Store ID is Empty, Please Re-Login and Scan QR Code Again")
}

func WhatsAppIsClientOK() error {
	client, err := currentClient()
	if err != nil {
		return err
	}

	if !client.IsConnected() {
		return errors.New("WhatsApp Client is not Connected")
	}

	if !client.IsLoggedIn() {
		return errors.New("WhatsApp Client is not Logged In")
	}

	return nil
}

// WhatsAppSessionJID reports the logged-in account JID, empty when unpaired.
func WhatsAppSessionJID() string {
	client := getClient()
	if client == nil || client.Store.ID == nil {
		return ""
	}
	return client.Store.ID.String()
}

func WhatsAppGetJID(ctx context.Context, id string) types.JID {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return types.EmptyJID
	}
	normalized := WhatsAppDecomposeJID(id)
	if normalized == "" {
		return types.EmptyJID
	}
	infos, err := client.IsOnWhatsApp(ctx, []string{"+" + normalized})
	if err != nil {
		return types.EmptyJID
	}
	if len(infos) == 0 {
		return types.EmptyJID
	}
	if infos[0].IsIn {
		return infos[0].JID
	}
	return types.EmptyJID
}

func WhatsAppCheckJID(ctx context.Context, id string) (types.JID, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := currentClient(); err != nil {
		return types.EmptyJID, err
	}
	remoteJID := WhatsAppComposeJID(id)
	if remoteJID.Server != types.GroupServer {
		resolved := WhatsAppGetJID(ctx, id)
		if resolved.IsEmpty() {
			return types.EmptyJID, errors.New("WhatsApp Personal ID is Not Registered")
		}
		remoteJID = resolved
	}
	return remoteJID, nil
}

func WhatsAppComposeJID(id string) types.JID {
	if strings.ContainsRune(id, '@') {
		if parsed, err := types.ParseJID(id); err == nil && parsed.Server != "" {
			return parsed
		}
	}

	id = WhatsAppDecomposeJID(id)
	if strings.ContainsRune(id, '-') || len(id) >= 18 {
		return types.NewJID(id, types.GroupServer)
	}
	return types.NewJID(id, types.DefaultUserServer)
}

func WhatsAppDecomposeJID(id string) string {
	if strings.ContainsRune(id, '@') {
		buffers := strings.Split(id, "@")
		id = buffers[0]
	}

	if len(id) > 0 && id[0] == '+' {
		id = id[1:]
	}

	return strings.TrimSpace(id)
}

func WhatsAppPresence(ctx context.Context, isAvailable bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return
	}
	if isAvailable {
		_ = client.SendPresence(ctx, types.PresenceAvailable)
	} else {
		_ = client.SendPresence(ctx, types.PresenceUnavailable)
	}
}

func WhatsAppComposeStatus(ctx context.Context, rjid types.JID, isComposing bool, isAudio bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	var typeCompose types.ChatPresence
	if isComposing {
		typeCompose = types.ChatPresenceComposing
	} else {
		typeCompose = types.ChatPresencePaused
	}

	var typeComposeMedia types.ChatPresenceMedia
	if isAudio {
		typeComposeMedia = types.ChatPresenceMediaAudio
	} else {
		typeComposeMedia = types.ChatPresenceMediaText
	}

	client, err := currentClient()
	if err != nil {
		return
	}
	_ = client.SendChatPresence(ctx, rjid, typeCompose, typeComposeMedia)
}
