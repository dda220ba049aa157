package contacts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

func TestBuildStaleReport(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	contacts := []pkgWhatsApp.Contact{
		{JID: "active@s.whatsapp.net", Phone: "628111", PushName: "Active"},
		{JID: "dormant@s.whatsapp.net", Phone: "628222", FullName: "Dormant Friend"},
		{JID: "ghost@s.whatsapp.net", Phone: "628333"},
		{JID: "older@s.whatsapp.net", Phone: "628444", PushName: "Older"},
	}
	lastSeen := map[string]time.Time{
		"active@s.whatsapp.net":  now.AddDate(0, 0, -3),
		"dormant@s.whatsapp.net": now.AddDate(0, 0, -200),
		"older@s.whatsapp.net":   now.AddDate(0, -1, -300),
	}

	report := BuildStaleReport(contacts, lastSeen, 180, now)

	assert.Equal(t, 4, report.TotalContacts)
	assert.Equal(t, 3, report.StaleCount)
	require.Len(t, report.Stale, 3)

	// Oldest activity first, never-seen entries at the end.
	assert.Equal(t, "older@s.whatsapp.net", report.Stale[0].JID)
	assert.Equal(t, "dormant@s.whatsapp.net", report.Stale[1].JID)
	assert.Equal(t, "Dormant Friend", report.Stale[1].Name)
	assert.Equal(t, 200, report.Stale[1].DaysInactive)
	assert.True(t, report.Stale[2].NeverSeen)
	assert.Equal(t, "ghost@s.whatsapp.net", report.Stale[2].JID)
}

func TestBuildStaleReportDefaultWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	contacts := []pkgWhatsApp.Contact{{JID: "a@s.whatsapp.net", Phone: "628111"}}
	lastSeen := map[string]time.Time{"a@s.whatsapp.net": now.AddDate(0, 0, -179)}

	report := BuildStaleReport(contacts, lastSeen, 0, now)

	assert.Equal(t, 180, report.InactiveDays)
	assert.Zero(t, report.StaleCount)
}

func TestBuildStaleReportEmpty(t *testing.T) {
	report := BuildStaleReport(nil, nil, 30, time.Now())
	assert.Zero(t, report.TotalContacts)
	assert.Empty(t, report.Stale)
}
