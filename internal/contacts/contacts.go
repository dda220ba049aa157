// Package contacts reports on the session's contact directory. WhatsApp
// exposes no contact-delete operation to linked devices, so this module is
// report-only: it surfaces stale entries for manual cleanup on the phone.
package contacts

import (
	"sort"
	"time"

	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

// StaleContact is a directory entry with no recent inbound message.
type StaleContact struct {
	JID          string     `json:"jid"`
	Phone        string     `json:"phone"`
	Name         string     `json:"name,omitempty"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
	DaysInactive int        `json:"days_inactive,omitempty"`
	NeverSeen    bool       `json:"never_seen,omitempty"`
}

// Report summarizes the stale scan.
type Report struct {
	TotalContacts int            `json:"total_contacts"`
	StaleCount    int            `json:"stale_count"`
	InactiveDays  int            `json:"inactive_days"`
	Stale         []StaleContact `json:"stale"`
}

const defaultInactiveDays = 180

// BuildStaleReport flags contacts whose last inbound message is older than
// the inactivity window, or who never messaged at all. Sorted oldest first,
// never-seen entries last.
func BuildStaleReport(contacts []pkgWhatsApp.Contact, lastSeen map[string]time.Time, inactiveDays int, now time.Time) *Report {
	if inactiveDays <= 0 {
		inactiveDays = defaultInactiveDays
	}
	cutoff := now.AddDate(0, 0, -inactiveDays)

	report := &Report{
		TotalContacts: len(contacts),
		InactiveDays:  inactiveDays,
	}

	for _, contact := range contacts {
		stale := StaleContact{
			JID:   contact.JID,
			Phone: contact.Phone,
			Name:  displayName(contact),
		}

		seen, ok := lastSeen[contact.JID]
		if !ok {
			stale.NeverSeen = true
			report.Stale = append(report.Stale, stale)
			continue
		}
		if seen.Before(cutoff) {
			seenCopy := seen
			stale.LastSeenAt = &seenCopy
			stale.DaysInactive = int(now.Sub(seen).Hours() / 24)
			report.Stale = append(report.Stale, stale)
		}
	}

	sort.Slice(report.Stale, func(i, j int) bool {
		a, b := report.Stale[i], report.Stale[j]
		if a.NeverSeen != b.NeverSeen {
			return !a.NeverSeen
		}
		if a.NeverSeen {
			return a.Phone < b.Phone
		}
		return a.LastSeenAt.Before(*b.LastSeenAt)
	})

	report.StaleCount = len(report.Stale)
	return report
}

func displayName(contact pkgWhatsApp.Contact) string {
	switch {
	case contact.FullName != "":
		return contact.FullName
	case contact.PushName != "":
		return contact.PushName
	case contact.BusinessName != "":
		return contact.BusinessName
	default:
		return ""
	}
}
