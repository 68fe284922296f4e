package cli

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/userdir/internal/client/client"
	"github.com/dmitrijs2005/userdir/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesAccount(t *testing.T) {
	stubPassword(t, "p1")
	api := newFakeAPI()
	app, out := newTestApp(api, readerFromLines("alice", "1990-03-07"))

	require.NoError(t, app.Register(context.Background()))

	require.Len(t, api.accounts, 1)
	acc := api.accounts[0]
	assert.Equal(t, "alice", acc.Username)
	assert.Equal(t, "p1", api.password[acc.ID])
	require.NotNil(t, acc.Birthday)
	assert.Equal(t, "1990-03-07", acc.Birthday.String())
	assert.Contains(t, out.String(), "Account 1 created for alice")
	assert.False(t, app.isLoggedIn())
}

func TestRegister_Errors(t *testing.T) {
	stubPassword(t, "p1")

	t.Run("empty username", func(t *testing.T) {
		app, _ := newTestApp(newFakeAPI(), readerFromLines(""))
		assert.Error(t, app.Register(context.Background()))
	})

	t.Run("bad birthday", func(t *testing.T) {
		api := newFakeAPI()
		app, _ := newTestApp(api, readerFromLines("alice", "07.03.1990"))
		assert.EqualError(t, app.Register(context.Background()), `invalid date "07.03.1990"`)
		assert.Empty(t, api.accounts)
	})

	t.Run("duplicate", func(t *testing.T) {
		api := newFakeAPI()
		app, _ := newTestApp(api, readerFromLines("alice", "", "alice", ""))
		require.NoError(t, app.Register(context.Background()))
		assert.ErrorIs(t, app.Register(context.Background()), client.ErrConflict)
	})

	t.Run("password read fails", func(t *testing.T) {
		old := getPassword
		getPassword = func(_ io.Writer) ([]byte, error) { return nil, errors.New("no tty") }
		t.Cleanup(func() { getPassword = old })

		app, _ := newTestApp(newFakeAPI(), readerFromLines("alice"))
		assert.EqualError(t, app.Register(context.Background()), "no tty")
	})
}

func TestLogin_MarksOnline(t *testing.T) {
	api := newFakeAPI()
	_, err := api.Register(context.Background(), "alice", "p1", nil)
	require.NoError(t, err)

	stubPassword(t, "p1")
	app, out := newTestApp(api, readerFromLines("alice"))

	require.NoError(t, app.Login(context.Background()))

	require.True(t, app.isLoggedIn())
	assert.Equal(t, "alice", app.account.Username)
	assert.True(t, app.account.Status)
	assert.True(t, api.accounts[0].Status)
	assert.Contains(t, out.String(), "Logged in as alice")
}

func TestLogin_AlreadyOnlineDoesNotToggle(t *testing.T) {
	api := newFakeAPI()
	_, err := api.Register(context.Background(), "alice", "p1", nil)
	require.NoError(t, err)
	api.accounts[0].Status = true

	stubPassword(t, "p1")
	app, _ := newTestApp(api, readerFromLines("alice"))

	require.NoError(t, app.Login(context.Background()))
	assert.Equal(t, 0, api.toggles)
	assert.True(t, api.accounts[0].Status)
}

func TestLogin_Failures(t *testing.T) {
	api := newFakeAPI()
	_, err := api.Register(context.Background(), "alice", "p1", nil)
	require.NoError(t, err)

	stubPassword(t, "nope")
	app, _ := newTestApp(api, readerFromLines("alice", "bob"))

	assert.EqualError(t, app.Login(context.Background()), "wrong password")
	assert.EqualError(t, app.Login(context.Background()), "wrong username")
	assert.False(t, app.isLoggedIn())
	assert.Equal(t, 0, api.toggles)
}

func TestLogin_ServerUnavailable(t *testing.T) {
	api := newFakeAPI()
	api.failAll = client.ErrUnavailable

	stubPassword(t, "p1")
	app, _ := newTestApp(api, readerFromLines("alice"))

	err := app.Login(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Contains(t, err.Error(), "server unavailable")
}

func TestLogout(t *testing.T) {
	api := newFakeAPI()
	_, err := api.Register(context.Background(), "alice", "p1", nil)
	require.NoError(t, err)

	stubPassword(t, "p1")
	app, out := newTestApp(api, readerFromLines("alice"))
	require.NoError(t, app.Login(context.Background()))

	require.NoError(t, app.Logout(context.Background()))
	assert.False(t, app.isLoggedIn())
	assert.False(t, api.accounts[0].Status)
	assert.Contains(t, out.String(), "Logged out")

	assert.ErrorIs(t, app.Logout(context.Background()), errNotLoggedIn)
}

func TestLogout_ClearsLocalStateWhenServerFails(t *testing.T) {
	api := newFakeAPI()
	app, _ := newTestApp(api, readerFromLines())
	app.account = &models.Account{ID: 1, Username: "alice", Status: true}

	api.failAll = client.ErrUnavailable
	assert.ErrorIs(t, app.Logout(context.Background()), client.ErrUnavailable)
	assert.False(t, app.isLoggedIn())
}

func TestRequestContext_UsesTimeout(t *testing.T) {
	app, _ := newTestApp(newFakeAPI(), readerFromLines())
	app.config.RequestTimeout = time.Minute

	ctx, cancel := app.requestContext(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	app.config.RequestTimeout = 0
	ctx2, cancel2 := app.requestContext(context.Background())
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.False(t, ok)
}
