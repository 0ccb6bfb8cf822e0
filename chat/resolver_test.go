package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunzhuo/teatalk/store"
)

func pair(id int64, parentID *int64, role store.Role, content string) *store.MessageWithAttachment {
	return &store.MessageWithAttachment{
		Message: &store.Message{ID: id, ParentID: parentID, Role: role, Content: content},
	}
}

func int64p(v int64) *int64 { return &v }

func resolvedIDs(pairs []*store.MessageWithAttachment) []int64 {
	ids := make([]int64, 0, len(pairs))
	for _, p := range pairs {
		ids = append(ids, p.Message.ID)
	}
	return ids
}

func TestResolveHistoryLinear(t *testing.T) {
	history := []*store.MessageWithAttachment{
		pair(1, nil, store.RoleSystem, "system"),
		pair(2, nil, store.RoleUser, "question"),
		pair(3, nil, store.RoleAssistant, "answer"),
	}
	resolved := ResolveHistory(history, 0)
	require.Equal(t, []int64{1, 2, 3}, resolvedIDs(resolved))
}

func TestResolveHistoryLatestChildWins(t *testing.T) {
	history := []*store.MessageWithAttachment{
		pair(1, nil, store.RoleSystem, "system"),
		pair(2, nil, store.RoleUser, "question"),
		pair(3, nil, store.RoleAssistant, "first answer"),
		pair(4, int64p(3), store.RoleAssistant, "regenerated"),
		pair(5, int64p(3), store.RoleAssistant, "regenerated again"),
	}
	resolved := ResolveHistory(history, 0)
	require.Equal(t, []int64{1, 2, 5}, resolvedIDs(resolved))
	require.Equal(t, "regenerated again", resolved[2].Message.Content)
}

func TestResolveHistoryOrderIndependent(t *testing.T) {
	base := []*store.MessageWithAttachment{
		pair(1, nil, store.RoleUser, "q"),
		pair(2, nil, store.RoleAssistant, "a"),
		pair(3, int64p(2), store.RoleAssistant, "a2"),
		pair(4, int64p(2), store.RoleAssistant, "a3"),
	}
	shuffled := []*store.MessageWithAttachment{base[0], base[3], base[1], base[2]}

	// The winner per parent depends only on ids; presentation order tracks
	// the input ordering of the surviving entries.
	resolved := ResolveHistory(shuffled, 0)
	require.Len(t, resolved, 2)
	require.Contains(t, resolvedIDs(resolved), int64(1))
	require.Contains(t, resolvedIDs(resolved), int64(4))
}

func TestResolveHistoryUpperBound(t *testing.T) {
	history := []*store.MessageWithAttachment{
		pair(1, nil, store.RoleSystem, "system"),
		pair(2, nil, store.RoleUser, "question"),
		pair(3, nil, store.RoleAssistant, "answer"),
		pair(4, int64p(3), store.RoleAssistant, "regenerated"),
	}

	// Regenerating message 3 must see only what came strictly before it.
	resolved := ResolveHistory(history, 3)
	require.Equal(t, []int64{1, 2}, resolvedIDs(resolved))
}

func TestResolveHistorySingleHop(t *testing.T) {
	// A grandchild is a child of a child: its parent is itself excluded as
	// a child entry, so the chain resolves to the first regeneration.
	history := []*store.MessageWithAttachment{
		pair(1, nil, store.RoleAssistant, "original"),
		pair(2, int64p(1), store.RoleAssistant, "second"),
		pair(3, int64p(2), store.RoleAssistant, "third"),
	}
	resolved := ResolveHistory(history, 0)
	require.Equal(t, []int64{2}, resolvedIDs(resolved))
}

func TestResolveHistoryEmpty(t *testing.T) {
	require.Empty(t, ResolveHistory(nil, 0))
	require.Empty(t, ResolveHistory(nil, 10))
}

func TestToTurnsCarriesAttachments(t *testing.T) {
	url := "https://example.com/a.png"
	withAttachment := pair(1, nil, store.RoleUser, "look")
	withAttachment.Attachment = &store.Attachment{ID: 7, Type: store.AttachmentTypeImage, URL: &url}

	turns := ToTurns([]*store.MessageWithAttachment{
		withAttachment,
		pair(2, nil, store.RoleAssistant, "seen"),
	})
	require.Len(t, turns, 2)
	require.Len(t, turns[0].Attachments, 1)
	require.Equal(t, int64(7), turns[0].Attachments[0].ID)
	require.Empty(t, turns[1].Attachments)
}
