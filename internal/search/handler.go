package search

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/waforge/waforge/internal/chatstore"
	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
)

// GlobalSearch looks up a phrase across the whole archive, or a single
// chat when chat_jid is set, and optionally writes a TXT report.
func GlobalSearch(c *fiber.Ctx) error {
	var req typWaForge.RequestGlobalSearch
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "GlobalSearch").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return router.ResponseBadRequest(c, "query is required")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	messages, err := chatstore.ListMessages(ctx, chatstore.MessageFilter{
		ChatJID:  req.ChatJID,
		Contains: query,
		Limit:    limit,
	})
	if err != nil {
		log.HandlerOp(c, "GlobalSearch").WithError(err).Error("Failed to query chat archive")
		return router.ResponseInternalError(c, err.Error())
	}

	result := Collect(query, messages)

	if req.OutputPath != "" {
		if err := WriteReport(result, req.OutputPath); err != nil {
			log.HandlerOp(c, "GlobalSearch").WithError(err).Error("Failed to write search report")
			return router.ResponseInternalError(c, err.Error())
		}
		result.ReportPath = req.OutputPath
	}

	log.HandlerOp(c, "GlobalSearch").
		WithField("query", query).
		WithField("hits", result.TotalHits).
		Info("Search finished")

	return router.ResponseSuccessWithData(c, "Success search messages", result)
}
