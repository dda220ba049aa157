package internal

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/waforge/waforge/internal/chatstore"
	"github.com/waforge/waforge/pkg/env"
	"github.com/waforge/waforge/pkg/log"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

// Routines registers the background cron jobs: session health checks,
// chat archive retention, and WhatsApp Web version refresh.
func Routines(cron *cron.Cron) {
	log.Print(nil).Info("Running Routine Tasks")

	if env.GetEnvBoolOrDefault("WHATSAPP_ENABLE_HEALTH_CHECK_CRON", true) {
		_, err := cron.AddFunc("0 */5 * * * *", func() {
			if err := pkgWhatsApp.WhatsAppIsClientOK(); err != nil {
				log.Op("health-check").Warn("Session unhealthy: " + err.Error())
				if err := pkgWhatsApp.WhatsAppReconnect(); err != nil {
					log.Op("health-check").Warn("Reconnect failed: " + err.Error())
				}
				return
			}
			log.Op("health-check").Info("Session healthy")
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add health check cron job")
		}
	} else {
		log.Print(nil).Info("Health check cron disabled; relying on whatsmeow event handlers")
	}

	if retentionDays := env.GetEnvIntOrDefault("WHATSAPP_CHAT_ARCHIVE_RETENTION_DAYS", 0); retentionDays > 0 {
		spec := env.GetEnvStringOrDefault("WHATSAPP_CHAT_ARCHIVE_PRUNE_CRON_SPEC", "0 0 4 * * *")
		_, err := cron.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			pruned, err := chatstore.PruneMessagesBefore(ctx, cutoff)
			if err != nil {
				log.Op("archive-prune").Error("Failed to prune chat archive: " + err.Error())
				return
			}
			log.Op("archive-prune").
				WithField("pruned", pruned).
				WithField("retention_days", retentionDays).
				Info("Chat archive pruned")
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add archive prune cron job")
		} else {
			log.Print(nil).WithField("retention_days", retentionDays).Info("Chat archive retention enabled")
		}
	}

	if env.GetEnvBoolOrDefault("WHATSAPP_ENABLE_WAVERSION_REFRESH_CRON", false) {
		spec := env.GetEnvStringOrDefault("WHATSAPP_WAVERSION_REFRESH_CRON_SPEC", "0 0 3 * * *")
		force := env.GetEnvBoolOrDefault("WHATSAPP_WAVERSION_REFRESH_CRON_FORCE", false)
		_, err := cron.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			status, refreshed, err := pkgWhatsApp.WhatsAppRefreshWAVersion(ctx, force)
			v := status.CurrentVersion
			versionStr := strconv.FormatUint(uint64(v[0]), 10) + "." + strconv.FormatUint(uint64(v[1]), 10) + "." + strconv.FormatUint(uint64(v[2]), 10)
			if err != nil {
				log.Op("waversion-refresh").WithField("version", versionStr).WithField("force", force).Error("WA Web version refresh failed: " + err.Error())
				return
			}
			log.Op("waversion-refresh").WithField("version", versionStr).WithField("refreshed", refreshed).WithField("force", force).Info("WA Web version refresh completed")
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add WA Web version refresh cron job")
		} else {
			log.Print(nil).WithField("spec", spec).WithField("force", force).Info("WA Web version refresh cron enabled")
		}
	}

	cron.Start()
}
