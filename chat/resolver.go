package chat

import (
	"github.com/sunzhuo/teatalk/store"
)

// ResolveHistory reconstructs the effective linear history from the
// parent/child message tree of a conversation.
//
// Among siblings sharing a parent, the child with the greatest id is the
// authoritative regeneration. The output keeps every root-level message
// (one that is not itself a child), substituting its latest direct child
// when one exists, in the original order of pairs.
//
// beforeID, when > 0, excludes every message at or after that id; it is
// used by regeneration to cut the history below the target message.
//
// Resolution is a pure function of its input. Substitution is deliberately
// applied one hop deep: a chain regenerated more than twice resolves to
// the second generation, not the deepest leaf, because regeneration always
// branches from the message the shell shows, which is itself at most one
// hop from a root.
func ResolveHistory(pairs []*store.MessageWithAttachment, beforeID int64) []*store.MessageWithAttachment {
	filtered := make([]*store.MessageWithAttachment, 0, len(pairs))
	for _, pair := range pairs {
		if beforeID > 0 && pair.Message.ID >= beforeID {
			continue
		}
		filtered = append(filtered, pair)
	}

	// parent id -> the child with the greatest id among its direct children.
	latestChildren := make(map[int64]*store.MessageWithAttachment)
	childIDs := make(map[int64]struct{})
	for _, pair := range filtered {
		if pair.Message.ParentID == nil {
			continue
		}
		parentID := *pair.Message.ParentID
		childIDs[pair.Message.ID] = struct{}{}
		if existing, ok := latestChildren[parentID]; !ok || pair.Message.ID > existing.Message.ID {
			latestChildren[parentID] = pair
		}
	}

	resolved := make([]*store.MessageWithAttachment, 0, len(filtered))
	for _, pair := range filtered {
		if _, isChild := childIDs[pair.Message.ID]; isChild {
			continue
		}
		if latest, ok := latestChildren[pair.Message.ID]; ok {
			resolved = append(resolved, latest)
			continue
		}
		resolved = append(resolved, pair)
	}
	return resolved
}

// Turn is one resolved role-tagged turn with its attachments, the unit the
// context builder consumes.
type Turn struct {
	Role        store.Role
	Content     string
	Attachments []*store.Attachment
}

// ToTurns converts resolved (message, optional attachment) pairs into turns.
func ToTurns(pairs []*store.MessageWithAttachment) []Turn {
	turns := make([]Turn, 0, len(pairs))
	for _, pair := range pairs {
		turn := Turn{
			Role:    pair.Message.Role,
			Content: pair.Message.Content,
		}
		if pair.Attachment != nil {
			turn.Attachments = []*store.Attachment{pair.Attachment}
		}
		turns = append(turns, turn)
	}
	return turns
}
