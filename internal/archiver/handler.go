package archiver

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/waforge/waforge/internal/chatstore"
	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	"github.com/waforge/waforge/pkg/validation"
)

// ExportChat writes one chat's archived history to a transcript file.
func ExportChat(c *fiber.Ctx) error {
	var req typWaForge.RequestExportChat
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "ExportChat").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if err := validation.ValidateChatJID(req.ChatJID); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	since, err := parseDate(req.Since)
	if err != nil {
		return router.ResponseBadRequest(c, "since must be YYYY-MM-DD")
	}
	until, err := parseDate(req.Until)
	if err != nil {
		return router.ResponseBadRequest(c, "until must be YYYY-MM-DD")
	}

	from, to, err := ResolveRange(req.Range, since, until, time.Now())
	if err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	messages, err := chatstore.ListMessages(ctx, chatstore.MessageFilter{
		ChatJID: req.ChatJID,
		Since:   from,
		Until:   to,
	})
	if err != nil {
		log.HandlerOp(c, "ExportChat").WithError(err).Error("Failed to query chat archive")
		return router.ResponseInternalError(c, err.Error())
	}

	path := req.OutputPath
	if path == "" {
		path = DefaultOutputPath(req.ChatJID, req.Format, time.Now())
	}

	summary, err := WriteExport(req.ChatJID, req.Format, path, messages)
	if err != nil {
		log.HandlerOp(c, "ExportChat").WithError(err).Error("Failed to write chat export")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "ExportChat").
		WithField("chat_jid", req.ChatJID).
		WithField("messages", summary.Messages).
		WithField("output_path", summary.OutputPath).
		Info("Chat exported")

	return router.ResponseSuccessWithData(c, "Success export chat", summary)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}
