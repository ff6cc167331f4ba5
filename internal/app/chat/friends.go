package chat

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"talkroom/internal/app/user"
)

// FriendSummary is one row of the friends list.
type FriendSummary struct {
	Friend user.User
	Latest *Message
}

// Friends lists every other user with the latest message exchanged with
// current. Users with a message come first, most recent first; the rest keep
// the enumeration order of the user store.
func (s *Service) Friends(ctx context.Context, current uuid.UUID) ([]FriendSummary, error) {
	others, err := s.users.Others(ctx, current)
	if err != nil {
		return nil, err
	}

	var talked, silent []FriendSummary
	for _, u := range others {
		latest, err := s.repo.Latest(ctx, current, u.ID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			silent = append(silent, FriendSummary{Friend: u})
			continue
		}
		talked = append(talked, FriendSummary{Friend: u, Latest: latest})
	}

	sort.SliceStable(talked, func(i, j int) bool {
		return before(talked[j].Latest, talked[i].Latest)
	})

	return append(talked, silent...), nil
}
