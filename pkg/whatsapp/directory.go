package whatsapp

import (
	"context"

	"go.mau.fi/whatsmeow/types"
)

// Contact is a directory entry from the session's synced contact store.
type Contact struct {
	JID          string `json:"jid"`
	Phone        string `json:"phone"`
	FullName     string `json:"full_name,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	PushName     string `json:"push_name,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
}

func WhatsAppGroupGet(ctx context.Context) ([]types.GroupInfo, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, err
	}
	groups, err := client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	var gids []types.GroupInfo
	for _, group := range groups {
		gids = append(gids, *group)
	}
	return gids, nil
}

func WhatsAppGroupInfo(ctx context.Context, groupJID types.JID) (*types.GroupInfo, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, err
	}
	return client.GetGroupInfo(ctx, groupJID)
}

// WhatsAppContactsGetAll lists every contact the session has synced.
func WhatsAppContactsGetAll(ctx context.Context) ([]Contact, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}

	stored, err := client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(stored))
	for jid, info := range stored {
		contacts = append(contacts, Contact{
			JID:          jid.String(),
			Phone:        jid.User,
			FullName:     info.FullName,
			FirstName:    info.FirstName,
			PushName:     info.PushName,
			BusinessName: info.BusinessName,
		})
	}
	return contacts, nil
}
