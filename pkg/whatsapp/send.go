package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/sunshineplan/imgconv"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/appstate"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"

	"github.com/waforge/waforge/pkg/env"
)

func WhatsAppSendText(ctx context.Context, rjid string, message string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		Conversation: proto.String(message),
	}
	_, err = client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	return msgExtra.ID, nil
}

func WhatsAppSendDocument(ctx context.Context, rjid string, documentBytes []byte, documentType string, documentName string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	WhatsAppPresence(ctx, true)
	WhatsAppComposeStatus(ctx, remoteJID, true, false)
	defer func() {
		WhatsAppComposeStatus(ctx, remoteJID, false, false)
		WhatsAppPresence(ctx, false)
	}()
	documentUploaded, err := client.Upload(ctx, documentBytes, whatsmeow.MediaDocument)
	if err != nil {
		return "", errors.New("Error While Uploading Media to WhatsApp Server")
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			URL:           proto.String(documentUploaded.URL),
			DirectPath:    proto.String(documentUploaded.DirectPath),
			Mimetype:      proto.String(documentType),
			FileName:      proto.String(documentName),
			FileLength:    proto.Uint64(documentUploaded.FileLength),
			FileSHA256:    documentUploaded.FileSHA256,
			FileEncSHA256: documentUploaded.FileEncSHA256,
			MediaKey:      documentUploaded.MediaKey,
		},
	}
	_, err = client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	return msgExtra.ID, nil
}

func WhatsAppSendImage(ctx context.Context, rjid string, imageBytes []byte, imageType string, imageCaption string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	WhatsAppPresence(ctx, true)
	WhatsAppComposeStatus(ctx, remoteJID, true, false)
	defer func() {
		WhatsAppComposeStatus(ctx, remoteJID, false, false)
		WhatsAppPresence(ctx, false)
	}()
	isWhatsAppImageConvertWebP, err := env.GetEnvBool("WHATSAPP_MEDIA_IMAGE_CONVERT_WEBP")
	if err != nil {
		isWhatsAppImageConvertWebP = false
	}
	if imageType == "image/webp" && isWhatsAppImageConvertWebP {
		imgConvDecode, err := imgconv.Decode(bytes.NewReader(imageBytes))
		if err != nil {
			return "", errors.New("Error While Decoding Convert Image Stream")
		}
		imgConvEncode := new(bytes.Buffer)
		err = imgconv.Write(imgConvEncode, imgConvDecode, &imgconv.FormatOption{Format: imgconv.PNG})
		if err != nil {
			return "", errors.New("Error While Encoding Convert Image Stream")
		}
		imageBytes = imgConvEncode.Bytes()
		imageType = "image/png"
	}
	isWhatsAppImageCompression, err := env.GetEnvBool("WHATSAPP_MEDIA_IMAGE_COMPRESSION")
	if err != nil {
		isWhatsAppImageCompression = false
	}
	if isWhatsAppImageCompression {
		imgResizeDecode, err := imgconv.Decode(bytes.NewReader(imageBytes))
		if err != nil {
			return "", errors.New("Error While Decoding Resize Image Stream")
		}
		imgResizeEncode := new(bytes.Buffer)
		err = imgconv.Write(imgResizeEncode,
			imgconv.Resize(imgResizeDecode, &imgconv.ResizeOption{Width: 1024}),
			&imgconv.FormatOption{})
		if err != nil {
			return "", errors.New("Error While Encoding Resize Image Stream")
		}
		imageBytes = imgResizeEncode.Bytes()
	}
	imgThumbDecode, err := imgconv.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", errors.New("Error While Decoding Thumbnail Image Stream")
	}
	imgThumbEncode := new(bytes.Buffer)
	err = imgconv.Write(imgThumbEncode,
		imgconv.Resize(imgThumbDecode, &imgconv.ResizeOption{Width: 72}),
		&imgconv.FormatOption{Format: imgconv.JPEG})
	if err != nil {
		return "", errors.New("Error While Encoding Thumbnail Image Stream")
	}
	imageUploaded, err := client.Upload(ctx, imageBytes, whatsmeow.MediaImage)
	if err != nil {
		return "", errors.New("Error While Uploading Media to WhatsApp Server")
	}
	imageThumbUploaded, err := client.Upload(ctx, imgThumbEncode.Bytes(), whatsmeow.MediaLinkThumbnail)
	if err != nil {
		return "", errors.New("Error while Uploading Image Thumbnail to WhatsApp Server")
	}
	msgExtra := whatsmeow.SendRequestExtra{
		ID: client.GenerateMessageID(),
	}
	msgContent := &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			URL:                 proto.String(imageUploaded.URL),
			DirectPath:          proto.String(imageUploaded.DirectPath),
			Mimetype:            proto.String(imageType),
			Caption:             proto.String(imageCaption),
			FileLength:          proto.Uint64(imageUploaded.FileLength),
			FileSHA256:          imageUploaded.FileSHA256,
			FileEncSHA256:       imageUploaded.FileEncSHA256,
			MediaKey:            imageUploaded.MediaKey,
			JPEGThumbnail:       imgThumbEncode.Bytes(),
			ThumbnailDirectPath: &imageThumbUploaded.DirectPath,
			ThumbnailSHA256:     imageThumbUploaded.FileSHA256,
			ThumbnailEncSHA256:  imageThumbUploaded.FileEncSHA256,
		},
	}
	_, err = client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	return msgExtra.ID, nil
}

// WhatsAppDeleteMessage revokes one of the account's own messages for everyone.
func WhatsAppDeleteMessage(ctx context.Context, chatJID types.JID, messageID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return err
	}

	msg := client.BuildRevoke(chatJID, types.EmptyJID, messageID)
	_, err = client.SendMessage(ctx, chatJID, msg)
	return err
}

// WhatsAppArchiveChat archives or unarchives one chat through app state sync
// so the change propagates to every linked device.
func WhatsAppArchiveChat(ctx context.Context, chatJID types.JID, archive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return err
	}
	return client.SendAppState(ctx, appstate.BuildArchive(chatJID, archive, time.Time{}, nil))
}

// WhatsAppMuteChat mutes a chat until the given time; zero mutes forever.
func WhatsAppMuteChat(ctx context.Context, chatJID types.JID, mute bool, duration time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return err
	}
	return client.SendAppState(ctx, appstate.BuildMute(chatJID, mute, duration))
}
