package analyzer

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

// AnalyzeChat computes statistics for one chat's archived history.
func AnalyzeChat(c *fiber.Ctx) error {
	var req typWaForge.RequestAnalyzeChat
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "AnalyzeChat").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if err := validation.ValidateChatJID(req.ChatJID); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	filter := chatstore.MessageFilter{ChatJID: req.ChatJID}
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
		log.HandlerOp(c, "AnalyzeChat").WithError(err).Error("Failed to query chat archive")
		return router.ResponseInternalError(c, err.Error())
	}

	stats := Analyze(messages, req.Top)

	log.HandlerOp(c, "AnalyzeChat").
		WithField("chat_jid", req.ChatJID).
		WithField("messages", stats.TotalMessages).
		Info("Chat analyzed")

	return router.ResponseSuccessWithData(c, "Success analyze chat", stats)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}
