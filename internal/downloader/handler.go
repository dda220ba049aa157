package downloader

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/waforge/waforge/internal/chatstore"
	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

type whatsAppFetcher struct{}

func (whatsAppFetcher) Download(ctx context.Context, msg *chatstore.Message) ([]byte, string, error) {
	return pkgWhatsApp.WhatsAppDownloadMedia(ctx, msg)
}

// DownloadMedia fetches archived media from one chat (or all chats) to disk.
func DownloadMedia(c *fiber.Ctx) error {
	var req typWaForge.RequestDownloadMedia
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "DownloadMedia").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.OutputDir == "" {
		return router.ResponseBadRequest(c, "output_dir is required")
	}

	filter := chatstore.MessageFilter{
		ChatJID:    req.ChatJID,
		SenderJID:  req.SenderJID,
		OnlyMedia:  true,
		MediaTypes: req.MediaTypes,
		Limit:      req.Limit,
	}
	var err error
	if filter.Since, err = parseDate(req.Since); err != nil {
		return router.ResponseBadRequest(c, "since must be YYYY-MM-DD")
	}
	if filter.Until, err = parseDate(req.Until); err != nil {
		return router.ResponseBadRequest(c, "until must be YYYY-MM-DD")
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	messages, err := chatstore.ListMessages(ctx, filter)
	if err != nil {
		log.HandlerOp(c, "DownloadMedia").WithError(err).Error("Failed to query chat archive")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "DownloadMedia").
		WithField("chat_jid", req.ChatJID).
		WithField("count", len(messages)).
		Info("Starting media download")

	result, err := SaveAll(ctx, messages, req.OutputDir, whatsAppFetcher{})
	if err != nil {
		log.HandlerOp(c, "DownloadMedia").WithError(err).Error("Media download failed")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "DownloadMedia").
		WithField("succeeded", result.Succeeded).
		WithField("failed", result.Failed).
		Info("Media download finished")

	return router.ResponseSuccessWithData(c, "Success download media", result)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}
