package watermarker

import (
	"context"

	"github.com/gofiber/fiber/v2"

	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/internal/watermark"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
	"github.com/waforge/waforge/pkg/validation"
)

type whatsAppSender struct{}

func (whatsAppSender) SendImage(ctx context.Context, chatJID string, imageBytes []byte, imageType string, caption string) (string, error) {
	return pkgWhatsApp.WhatsAppSendImage(ctx, chatJID, imageBytes, imageType, caption)
}

// RunBatch composites a watermark over every image in a folder and sends the
// results to the requested chat.
func RunBatch(c *fiber.Ctx) error {
	var req typWaForge.RequestWatermarkBatch
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "WatermarkBatch").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.FolderPath == "" {
		return router.ResponseBadRequest(c, "folder_path is required")
	}
	if err := validation.ValidateChatJID(req.ChatJID); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	opts := watermark.Options{
		ScalePercent:   req.Scale,
		OpacityPercent: req.Opacity,
		Anchor:         watermark.Anchor(req.Anchor),
		Padding:        req.Padding,
	}
	if opts.ScalePercent <= 0 {
		opts.ScalePercent = 20
	}
	if opts.OpacityPercent <= 0 {
		opts.OpacityPercent = 100
	}
	if opts.Padding <= 0 {
		opts.Padding = watermark.DefaultPadding
	}

	job := Job{
		FolderPath:    req.FolderPath,
		ChatJID:       req.ChatJID,
		Text:          req.Text,
		FontPath:      req.FontPath,
		WatermarkPath: req.WatermarkPath,
		Caption:       req.Caption,
		Options:       opts,
		Workers:       req.Workers,
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	log.HandlerOp(c, "WatermarkBatch").
		WithField("folder", req.FolderPath).
		WithField("chat_jid", req.ChatJID).
		Info("Starting watermark batch")

	result, err := Run(ctx, job, whatsAppSender{})
	if err != nil {
		log.HandlerOp(c, "WatermarkBatch").WithError(err).Error("Watermark batch failed")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "WatermarkBatch").
		WithField("total", result.Total).
		WithField("succeeded", result.Succeeded).
		WithField("failed", result.Failed).
		Info("Watermark batch finished")

	return router.ResponseSuccessWithData(c, "Success run watermark batch", result)
}
