package members

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mau.fi/whatsmeow/types"
)

func sampleGroup() *types.GroupInfo {
	group := &types.GroupInfo{}
	group.JID = types.NewJID("120363000000000000", types.GroupServer)
	group.Name = "Weekend Crew"
	group.Participants = []types.GroupParticipant{
		{JID: types.NewJID("628222000111", types.DefaultUserServer), DisplayName: "Bobby"},
		{JID: types.NewJID("628111000222", types.DefaultUserServer), DisplayName: "Alice", IsAdmin: true},
		{JID: types.NewJID("628333000333", types.DefaultUserServer), IsAdmin: true, IsSuperAdmin: true},
	}
	return group
}

func TestFromGroupSortsByPhone(t *testing.T) {
	members := FromGroup(sampleGroup())

	require.Len(t, members, 3)
	assert.Equal(t, "628111000222", members[0].Phone)
	assert.Equal(t, "628222000111", members[1].Phone)
	assert.Equal(t, "628333000333", members[2].Phone)
	assert.True(t, members[0].IsAdmin)
	assert.True(t, members[2].IsSuperAdmin)
}

func TestFromGroupNil(t *testing.T) {
	assert.Nil(t, FromGroup(nil))
}

func TestBuildCSV(t *testing.T) {
	data, err := BuildCSV("Weekend Crew", FromGroup(sampleGroup()))
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, []string{"group", "jid", "phone", "display_name", "is_admin", "is_super_admin"}, records[0])
	assert.Equal(t, "Weekend Crew", records[1][0])
	assert.Equal(t, "628111000222@s.whatsapp.net", records[1][1])
	assert.Equal(t, "Alice", records[1][3])
	assert.Equal(t, "true", records[1][4])
	assert.Equal(t, "false", records[1][5])
	assert.Equal(t, "true", records[3][5])
}

func TestWriteCSVCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "crew.csv")
	require.NoError(t, WriteCSV(path, "Weekend Crew", FromGroup(sampleGroup())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Weekend Crew")
}

func TestWriteCSVRequiresPath(t *testing.T) {
	assert.Error(t, WriteCSV("", "x", nil))
}
