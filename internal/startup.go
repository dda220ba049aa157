package internal

import (
	"context"
	mathrand "math/rand/v2"
	"time"

	"github.com/waforge/waforge/pkg/env"
	"github.com/waforge/waforge/pkg/log"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

func reconnectWithRetry(retries int, baseBackoff, maxBackoff time.Duration) error {
	if retries <= 1 {
		return pkgWhatsApp.WhatsAppReconnect()
	}
	if baseBackoff <= 0 {
		baseBackoff = 2 * time.Second
	}
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		lastErr = pkgWhatsApp.WhatsAppReconnect()
		if lastErr == nil {
			return nil
		}

		// Exponential backoff with small jitter.
		backoff := baseBackoff * time.Duration(1<<(attempt-1))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(mathrand.Int64N(int64(500*time.Millisecond) + 1))
		time.Sleep(backoff + jitter)
	}
	return lastErr
}

// Startup restores the persisted WhatsApp session, if one exists, and
// reconnects it. A fresh install simply logs that pairing is needed.
func Startup() {
	log.Print(nil).Info("Running Startup Tasks")

	ctx := context.Background()

	device, err := pkgWhatsApp.WhatsAppDatastore.GetFirstDevice(ctx)
	if err != nil {
		log.Print(nil).Error("Failed to Load WhatsApp Session from Datastore: " + err.Error())
		return
	}
	if device == nil || device.ID == nil {
		log.Print(nil).Info("No Persisted WhatsApp Session Found, Waiting for Pairing")
		return
	}

	retries := env.GetEnvIntOrDefault("WHATSAPP_STARTUP_RECONNECT_RETRIES", 5)
	baseBackoff := env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_RECONNECT_BACKOFF_BASE", 2*time.Second)
	maxBackoff := env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_RECONNECT_BACKOFF_MAX", 30*time.Second)

	pkgWhatsApp.WhatsAppInitClient(device)

	if err := reconnectWithRetry(retries, baseBackoff, maxBackoff); err != nil {
		log.Print(nil).Warn("Failed to Reconnect WhatsApp Session: " + err.Error())
		return
	}

	log.Print(nil).Info("Restored WhatsApp Session " + pkgWhatsApp.WhatsAppSessionJID())
}
