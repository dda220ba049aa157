package internal

import (
	"github.com/gofiber/fiber/v2"

	pkgAuth "github.com/waforge/waforge/pkg/auth"
	"github.com/waforge/waforge/pkg/router"

	ctlAnalyzer "github.com/waforge/waforge/internal/analyzer"
	ctlArchiver "github.com/waforge/waforge/internal/archiver"
	ctlBulkArchive "github.com/waforge/waforge/internal/bulkarchive"
	ctlCleaner "github.com/waforge/waforge/internal/cleaner"
	ctlContacts "github.com/waforge/waforge/internal/contacts"
	ctlDownloader "github.com/waforge/waforge/internal/downloader"
	ctlIndex "github.com/waforge/waforge/internal/index"
	ctlMembers "github.com/waforge/waforge/internal/members"
	ctlMessaging "github.com/waforge/waforge/internal/messaging"
	ctlSearch "github.com/waforge/waforge/internal/search"
	ctlSession "github.com/waforge/waforge/internal/session"
	ctlWatermarker "github.com/waforge/waforge/internal/watermarker"
)

func Routes(app *fiber.App) {
	// Route for Index
	// ---------------------------------------------
	if router.BaseURL == "" {
		app.Get("/", ctlIndex.Index)
	} else {
		app.Get(router.BaseURL, ctlIndex.Index)
		app.Get(router.BaseURL+"/", ctlIndex.Index)
	}
	app.Get(router.BaseURL+"/health", ctlIndex.Health)

	// Route for Authentication
	// ---------------------------------------------
	app.Post(router.BaseURL+"/auth/login", ctlSession.AuthLogin)

	// Everything below needs a valid session token.
	bearer := pkgAuth.BearerAuth()

	// Route for WhatsApp Session
	// ---------------------------------------------
	app.Get(router.BaseURL+"/session", bearer, ctlSession.Status)
	app.Post(router.BaseURL+"/session/login", bearer, ctlSession.LoginQR)
	app.Post(router.BaseURL+"/session/login-code", bearer, ctlSession.LoginCode)
	app.Post(router.BaseURL+"/session/reconnect", bearer, ctlSession.Reconnect)
	app.Post(router.BaseURL+"/session/logout", bearer, ctlSession.Logout)

	// Route for Messaging
	// ---------------------------------------------
	app.Post(router.BaseURL+"/messages/text", bearer, ctlMessaging.SendText)
	app.Post(router.BaseURL+"/messages/document", bearer, ctlMessaging.SendDocumentFile)
	app.Post(router.BaseURL+"/messages/bulk", bearer, ctlMessaging.SendBulkMessage)
	app.Post(router.BaseURL+"/messages/clean", bearer, ctlCleaner.CleanMessages)

	// Route for Watermark Compositing
	// ---------------------------------------------
	app.Post(router.BaseURL+"/watermark/batch", bearer, ctlWatermarker.RunBatch)

	// Route for Archive Tools
	// ---------------------------------------------
	app.Get(router.BaseURL+"/chats", bearer, ctlSession.ListChats)
	app.Post(router.BaseURL+"/chats/export", bearer, ctlArchiver.ExportChat)
	app.Post(router.BaseURL+"/chats/archive", bearer, ctlBulkArchive.BulkArchive)
	app.Post(router.BaseURL+"/chats/analyze", bearer, ctlAnalyzer.AnalyzeChat)
	app.Post(router.BaseURL+"/chats/search", bearer, ctlSearch.GlobalSearch)
	app.Post(router.BaseURL+"/media/download", bearer, ctlDownloader.DownloadMedia)

	// Route for Directory
	// ---------------------------------------------
	app.Get(router.BaseURL+"/groups", bearer, ctlMembers.ListGroups)
	app.Post(router.BaseURL+"/groups/members/export", bearer, ctlMembers.ExportMembers)
	app.Get(router.BaseURL+"/contacts", bearer, ctlContacts.ListContacts)
	app.Post(router.BaseURL+"/contacts/stale", bearer, ctlContacts.StaleContacts)
}
