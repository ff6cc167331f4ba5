package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"talkroom/internal/app/chat"
	"talkroom/internal/app/forms"
	"talkroom/internal/app/user"
	"talkroom/internal/pkg/errs"
	"talkroom/internal/pkg/metrics"
)

// HandleFriends lists every other user with the latest message exchanged.
func HandleFriends(deps *AppDeps) http.HandlerFunc {
	return readOnly(deps, func(w http.ResponseWriter, r *http.Request) {
		friends, err := deps.Chat.Friends(r.Context(), currentUser(r).ID)
		if err != nil {
			deps.failUnknown(w, r, err)
			return
		}

		page := newPage(r, "Friends")
		page.Data = friends
		deps.render(w, r, tmplFriends, page)
	})
}

// talkRoomPage is the page-specific content of a talk room.
type talkRoomPage struct {
	Friend   *user.User
	Messages []chat.Message
}

// HandleTalkRoom shows the conversation with {user_id} and appends messages to it.
func HandleTalkRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friendID, err := uuid.Parse(chi.URLParam(r, "user_id"))
		if err != nil {
			deps.fail(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		friend, err := deps.Users.Get(r.Context(), friendID)
		if errors.Is(err, user.ErrNotFound) {
			deps.fail(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}
		if err != nil {
			deps.failUnknown(w, r, err)
			return
		}

		me := currentUser(r)
		roomURL := "/talk/" + friend.ID.String()

		flow := &formFlow[forms.Talk]{
			Template: tmplTalkRoom,
			Title:    friend.Username,
			Initial:  func(*http.Request) *forms.Talk { return &forms.Talk{} },
			Bind: func(r *http.Request) *forms.Talk {
				f := &forms.Talk{}
				f.Bind(r)
				return f
			},
			Validate: func(_ *http.Request, f *forms.Talk) (forms.Errors, error) {
				return f.Validate(), nil
			},
			Save: func(_ http.ResponseWriter, r *http.Request, f *forms.Talk) (forms.Errors, error) {
				if _, err := deps.Chat.Send(r.Context(), me.ID, friend.ID, f.Talk); err != nil {
					return nil, err
				}
				metrics.RecordMessageSent()
				return nil, nil
			},
			SuccessURL: redirectTo(roomURL),
			Data: func(r *http.Request) (any, error) {
				messages, err := deps.Chat.Conversation(r.Context(), me.ID, friend.ID)
				if err != nil {
					return nil, err
				}
				return talkRoomPage{Friend: friend, Messages: messages}, nil
			},
		}

		flow.serve(deps, w, r)
	}
}
