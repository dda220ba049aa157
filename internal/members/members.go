// Package members exports group participant lists to CSV.
package members

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"go.mau.fi/whatsmeow/types"
)

// Member is one exported participant row.
type Member struct {
	JID          string
	Phone        string
	DisplayName  string
	IsAdmin      bool
	IsSuperAdmin bool
}

// FromGroup flattens a group's participant list into export rows, sorted by
// phone number so repeated exports diff cleanly.
func FromGroup(group *types.GroupInfo) []Member {
	if group == nil {
		return nil
	}
	members := make([]Member, 0, len(group.Participants))
	for _, participant := range group.Participants {
		member := Member{
			JID:          participant.JID.String(),
			Phone:        participant.JID.User,
			DisplayName:  participant.DisplayName,
			IsAdmin:      participant.IsAdmin,
			IsSuperAdmin: participant.IsSuperAdmin,
		}
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Phone < members[j].Phone })
	return members
}

// BuildCSV renders members as CSV with a header row.
func BuildCSV(groupName string, members []Member) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{"group", "jid", "phone", "display_name", "is_admin", "is_super_admin"}); err != nil {
		return nil, err
	}
	for _, member := range members {
		record := []string{
			groupName,
			member.JID,
			member.Phone,
			member.DisplayName,
			strconv.FormatBool(member.IsAdmin),
			strconv.FormatBool(member.IsSuperAdmin),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV persists the export, creating parent directories as needed.
func WriteCSV(path string, groupName string, members []Member) error {
	if path == "" {
		return errors.New("output path is required")
	}
	data, err := BuildCSV(groupName, members)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
