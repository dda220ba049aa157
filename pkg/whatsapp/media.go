package whatsapp

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/waforge/waforge/internal/chatstore"
)

// WhatsAppDownloadMedia fetches the media payload of an archived message and
// returns the bytes together with a file extension derived from the mimetype.
func WhatsAppDownloadMedia(ctx context.Context, msg *chatstore.Message) ([]byte, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, "", err
	}
	if msg == nil || len(msg.Raw) == 0 {
		return nil, "", errors.New("message has no stored payload to download from")
	}

	var wire waE2E.Message
	if err := proto.Unmarshal(msg.Raw, &wire); err != nil {
		return nil, "", err
	}

	downloadable, mimetype := downloadablePart(&wire)
	if downloadable == nil {
		return nil, "", errors.New("message does not carry downloadable media")
	}

	data, err := client.Download(ctx, downloadable)
	if err != nil {
		return nil, "", err
	}
	return data, extensionForMime(mimetype, msg.MediaType), nil
}

func downloadablePart(msg *waE2E.Message) (whatsmeow.DownloadableMessage, string) {
	switch {
	case msg.ImageMessage != nil:
		return msg.ImageMessage, msg.ImageMessage.GetMimetype()
	case msg.VideoMessage != nil:
		return msg.VideoMessage, msg.VideoMessage.GetMimetype()
	case msg.AudioMessage != nil:
		return msg.AudioMessage, msg.AudioMessage.GetMimetype()
	case msg.DocumentMessage != nil:
		return msg.DocumentMessage, msg.DocumentMessage.GetMimetype()
	case msg.StickerMessage != nil:
		return msg.StickerMessage, msg.StickerMessage.GetMimetype()
	default:
		return nil, ""
	}
}

func extensionForMime(mimetype string, mediaType string) string {
	mimetype = strings.ToLower(strings.TrimSpace(mimetype))
	if idx := strings.IndexRune(mimetype, ';'); idx >= 0 {
		mimetype = strings.TrimSpace(mimetype[:idx])
	}
	switch mimetype {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/3gpp":
		return ".3gp"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/mp4":
		return ".m4a"
	case "application/pdf":
		return ".pdf"
	}
	if idx := strings.IndexRune(mimetype, '/'); idx >= 0 && idx+1 < len(mimetype) {
		return "." + mimetype[idx+1:]
	}
	switch mediaType {
	case chatstore.MediaImage:
		return ".jpg"
	case chatstore.MediaVideo:
		return ".mp4"
	case chatstore.MediaAudio:
		return ".ogg"
	case chatstore.MediaSticker:
		return ".webp"
	default:
		return ".bin"
	}
}
