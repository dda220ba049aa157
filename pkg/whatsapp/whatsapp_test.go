package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow/types"

	"github.com/waforge/waforge/internal/chatstore"
)

func TestWhatsAppDecomposeJID(t *testing.T) {
	assert.Equal(t, "6281234567890", WhatsAppDecomposeJID("6281234567890@s.whatsapp.net"))
	assert.Equal(t, "6281234567890", WhatsAppDecomposeJID("+6281234567890"))
	assert.Equal(t, "120363041234567890", WhatsAppDecomposeJID("120363041234567890@g.us"))
	assert.Equal(t, "6281234567890", WhatsAppDecomposeJID("6281234567890"))
}

func TestWhatsAppComposeJID(t *testing.T) {
	personal := WhatsAppComposeJID("6281234567890")
	assert.Equal(t, "6281234567890", personal.User)
	assert.Equal(t, types.DefaultUserServer, personal.Server)

	group := WhatsAppComposeJID("120363041234567890@g.us")
	assert.Equal(t, "120363041234567890", group.User)
	assert.Equal(t, types.GroupServer, group.Server)

	// Full JIDs keep their server instead of being re-guessed from length.
	newsletter := WhatsAppComposeJID("120363041234567890@newsletter")
	assert.Equal(t, "newsletter", newsletter.Server)

	legacyGroup := WhatsAppComposeJID("6281234567890-1631234567")
	assert.Equal(t, types.GroupServer, legacyGroup.Server)
}

func TestMaskJIDForLog(t *testing.T) {
	assert.Equal(t, "628123456xxxx", maskJIDForLog("6281234567890"))
	assert.Equal(t, "62", maskJIDForLog("62"))
}

func TestExtensionForMime(t *testing.T) {
	assert.Equal(t, ".jpg", extensionForMime("image/jpeg", chatstore.MediaImage))
	assert.Equal(t, ".ogg", extensionForMime("audio/ogg; codecs=opus", chatstore.MediaAudio))
	assert.Equal(t, ".flac", extensionForMime("audio/flac", chatstore.MediaAudio))
	assert.Equal(t, ".mp4", extensionForMime("", chatstore.MediaVideo))
	assert.Equal(t, ".bin", extensionForMime("", "unknown"))
}
