package handler

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkroom/internal/app/chat"
	"talkroom/internal/app/forms"
)

func talkURL(id uuid.UUID) string {
	return "/talk/" + id.String()
}

func friendsOf(t *testing.T, app *testApp) []chat.FriendSummary {
	t.Helper()
	page := app.renderer.lastPage(t)
	friends, ok := page.Data.([]chat.FriendSummary)
	require.True(t, ok, "friends page data is %T", page.Data)
	return friends
}

func TestAliceAndBobScenario(t *testing.T) {
	app := newTestApp(t)

	signup := func(b *browser, name string) {
		res := b.postFile("/signup", map[string]string{
			"username":  name,
			"email":     name + "@example.com",
			"password1": testPassword,
			"password2": testPassword,
		}, "", "", nil)
		require.Equal(t, http.StatusSeeOther, res.Status, res.Body)
	}

	alice := app.browser(t)
	signup(alice, "alice")
	bob := app.browser(t)
	signup(bob, "bob")

	aliceUser, err := app.users.GetByUsername(t.Context(), "alice")
	require.NoError(t, err)
	bobUser, err := app.users.GetByUsername(t.Context(), "bob")
	require.NoError(t, err)

	for _, body := range []string{"hi", "how are you"} {
		res := alice.post(talkURL(bobUser.ID), url.Values{"talk": {body}})
		require.Equal(t, http.StatusSeeOther, res.Status)
		assert.Equal(t, talkURL(bobUser.ID), res.Location())
	}

	res := alice.get("/friends")
	require.Equal(t, http.StatusOK, res.Status)
	friends := friendsOf(t, app)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Friend.Username)
	require.NotNil(t, friends[0].Latest)
	assert.Equal(t, "how are you", friends[0].Latest.Body)
	assert.Contains(t, res.Body, "how are you")

	res = bob.get(talkURL(aliceUser.ID))
	require.Equal(t, http.StatusOK, res.Status)
	room, ok := app.renderer.lastPage(t).Data.(talkRoomPage)
	require.True(t, ok)
	require.Len(t, room.Messages, 2)
	assert.Equal(t, "hi", room.Messages[0].Body)
	assert.Equal(t, "how are you", room.Messages[1].Body)
	assert.Equal(t, aliceUser.ID, room.Messages[0].FromID)
	assert.Less(t, strings.Index(res.Body, "<p>hi</p>"), strings.Index(res.Body, "<p>how are you</p>"))

	anonymous := app.browser(t)
	res = anonymous.get(talkURL(bobUser.ID))
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.True(t, strings.HasPrefix(res.Location(), "/login?next="), res.Location())
}

func TestConversationIsSymmetric(t *testing.T) {
	app := newTestApp(t)
	aliceUser := app.register(t, "alice", testPassword)
	bobUser := app.register(t, "bob", testPassword)

	alice := app.browser(t)
	alice.login("alice", testPassword)
	bob := app.browser(t)
	bob.login("bob", testPassword)

	alice.post(talkURL(bobUser.ID), url.Values{"talk": {"one"}})
	bob.post(talkURL(aliceUser.ID), url.Values{"talk": {"two"}})
	alice.post(talkURL(bobUser.ID), url.Values{"talk": {"three"}})

	bodies := func(b *browser, other uuid.UUID) []string {
		res := b.get(talkURL(other))
		require.Equal(t, http.StatusOK, res.Status)
		room := app.renderer.lastPage(t).Data.(talkRoomPage)
		var out []string
		for i, m := range room.Messages {
			if i > 0 {
				assert.False(t, m.CreatedAt.Before(room.Messages[i-1].CreatedAt))
			}
			out = append(out, m.Body)
		}
		return out
	}

	want := []string{"one", "two", "three"}
	assert.Equal(t, want, bodies(alice, bobUser.ID))
	assert.Equal(t, want, bodies(bob, aliceUser.ID))
}

func TestEmptyMessageIsRejected(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", testPassword)
	bobUser := app.register(t, "bob", testPassword)
	b := app.browser(t)
	b.login("alice", testPassword)

	for _, body := range []string{"", "   \n\t"} {
		res := b.post(talkURL(bobUser.ID), url.Values{"talk": {body}})
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, 0, app.messages.Len())

		page := app.renderer.lastPage(t)
		assert.Equal(t, tmplTalkRoom, app.renderer.last(t).Name)
		assert.True(t, page.Errors.Has("talk"))
		_, ok := page.Data.(talkRoomPage)
		assert.True(t, ok)
	}
}

func TestTooLongMessageIsRejected(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", testPassword)
	bobUser := app.register(t, "bob", testPassword)
	b := app.browser(t)
	b.login("alice", testPassword)

	res := b.post(talkURL(bobUser.ID), url.Values{"talk": {strings.Repeat("あ", chat.MaxBodyLength+1)}})
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 0, app.messages.Len())

	form, ok := app.renderer.lastPage(t).Form.(*forms.Talk)
	require.True(t, ok)
	assert.Equal(t, chat.MaxBodyLength+1, len([]rune(form.Talk)))

	res = b.post(talkURL(bobUser.ID), url.Values{"talk": {strings.Repeat("あ", chat.MaxBodyLength)}})
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, 1, app.messages.Len())
}

func TestMessageBodyIsTrimmed(t *testing.T) {
	app := newTestApp(t)
	aliceUser := app.register(t, "alice", testPassword)
	bobUser := app.register(t, "bob", testPassword)
	b := app.browser(t)
	b.login("alice", testPassword)

	b.post(talkURL(bobUser.ID), url.Values{"talk": {"  hello  "}})

	messages, err := app.deps.Chat.Conversation(t.Context(), aliceUser.ID, bobUser.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Body)
}

func TestMessageIsEscaped(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", testPassword)
	bobUser := app.register(t, "bob", testPassword)
	b := app.browser(t)
	b.login("alice", testPassword)

	b.post(talkURL(bobUser.ID), url.Values{"talk": {"<script>alert(1)</script>"}})
	res := b.get(talkURL(bobUser.ID))

	assert.NotContains(t, res.Body, "<script>alert(1)</script>")
	assert.Contains(t, res.Body, "&lt;script&gt;")
}

func TestTalkRoomUnknownUser(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", testPassword)
	b := app.browser(t)
	b.login("alice", testPassword)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		res := b.get("/talk/" + id)
		assert.Equal(t, http.StatusNotFound, res.Status)
		assert.Equal(t, "error", app.renderer.last(t).Name)
		assert.Contains(t, res.Body, "User not found.")

		res = b.post("/talk/"+id, url.Values{"talk": {"hello?"}})
		assert.Equal(t, http.StatusNotFound, res.Status)
	}
	assert.Equal(t, 0, app.messages.Len())
}

func TestTalkRoomWithSelf(t *testing.T) {
	app := newTestApp(t)
	aliceUser := app.register(t, "alice", testPassword)
	b := app.browser(t)
	b.login("alice", testPassword)

	res := b.post(talkURL(aliceUser.ID), url.Values{"talk": {"note to self"}})
	assert.Equal(t, http.StatusSeeOther, res.Status)

	res = b.get(talkURL(aliceUser.ID))
	assert.Equal(t, http.StatusOK, res.Status)
	room := app.renderer.lastPage(t).Data.(talkRoomPage)
	require.Len(t, room.Messages, 1)
}

func TestFriendsOrdering(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", testPassword)
	bob := app.register(t, "bob", testPassword)
	app.register(t, "carol", testPassword)
	dave := app.register(t, "dave", testPassword)
	app.register(t, "erin", testPassword)

	b := app.browser(t)
	b.login("alice", testPassword)

	// dave first, then bob: bob holds the newest message.
	b.post(talkURL(dave.ID), url.Values{"talk": {"to dave"}})
	b.post(talkURL(bob.ID), url.Values{"talk": {"to bob"}})

	res := b.get("/friends")
	require.Equal(t, http.StatusOK, res.Status)

	friends := friendsOf(t, app)
	var names []string
	for _, f := range friends {
		names = append(names, f.Friend.Username)
	}
	require.Len(t, names, 4)
	assert.Equal(t, []string{"bob", "dave"}, names[:2])
	assert.ElementsMatch(t, []string{"carol", "erin"}, names[2:])
	assert.Nil(t, friends[2].Latest)
	assert.Nil(t, friends[3].Latest)
	assert.NotContains(t, names, "alice")
}

func TestFriendsEmpty(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", testPassword)
	b := app.browser(t)
	b.login("alice", testPassword)

	res := b.get("/friends")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Empty(t, friendsOf(t, app))
	assert.Contains(t, res.Body, "Nobody else has signed up yet.")
}

func TestAnonymousTalkHasNoSideEffects(t *testing.T) {
	app := newTestApp(t)
	bobUser := app.register(t, "bob", testPassword)
	b := app.browser(t)

	res := b.post(talkURL(bobUser.ID), url.Values{"talk": {"hello"}})
	assert.Equal(t, http.StatusSeeOther, res.Status)
	assert.True(t, strings.HasPrefix(res.Location(), loginURL))
	assert.Equal(t, 0, app.messages.Len())
	assert.Equal(t, 0, app.sessions.Len())
}
