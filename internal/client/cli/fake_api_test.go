package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/dmitrijs2005/userdir/internal/client/client"
	"github.com/dmitrijs2005/userdir/internal/client/config"
	"github.com/dmitrijs2005/userdir/internal/client/models"
	"github.com/dmitrijs2005/userdir/internal/timex"
)

// fakeAPI keeps accounts in a slice and mimics the server's error kinds.
type fakeAPI struct {
	accounts []*models.Account
	password map[int64]string
	pingErr  error
	failAll  error
	toggles  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{password: map[int64]string{}}
}

func (f *fakeAPI) byName(username string) *models.Account {
	for _, acc := range f.accounts {
		if acc.Username == username {
			return acc
		}
	}
	return nil
}

func (f *fakeAPI) byID(id int64) *models.Account {
	for _, acc := range f.accounts {
		if acc.ID == id {
			return acc
		}
	}
	return nil
}

func apiErr(status int, msg string) error {
	return &client.APIError{Status: status, Message: msg}
}

func (f *fakeAPI) Register(ctx context.Context, username, password string, birthday *timex.Date) (*models.Account, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	if f.byName(username) != nil {
		return nil, client.ErrConflict
	}
	acc := &models.Account{ID: int64(len(f.accounts) + 1), Username: username, Birthday: birthday, Token: "tok"}
	f.accounts = append(f.accounts, acc)
	f.password[acc.ID] = password
	cp := *acc
	return &cp, nil
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*models.Account, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	acc := f.byName(username)
	if acc == nil {
		return nil, apiErr(http.StatusConflict, "wrong username")
	}
	if f.password[acc.ID] != password {
		return nil, apiErr(http.StatusConflict, "wrong password")
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAPI) List(ctx context.Context) ([]models.Account, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := make([]models.Account, 0, len(f.accounts))
	for _, acc := range f.accounts {
		out = append(out, *acc)
	}
	return out, nil
}

func (f *fakeAPI) Get(ctx context.Context, id int64) (*models.Account, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	acc := f.byID(id)
	if acc == nil {
		return nil, client.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAPI) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	acc := f.byName(username)
	if acc == nil {
		return nil, client.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAPI) TogglePresence(ctx context.Context, id int64) error {
	if f.failAll != nil {
		return f.failAll
	}
	acc := f.byID(id)
	if acc == nil {
		return client.ErrNotFound
	}
	f.toggles++
	acc.Status = !acc.Status
	return nil
}

func (f *fakeAPI) UpdateUsername(ctx context.Context, id int64, username string) error {
	if f.failAll != nil {
		return f.failAll
	}
	acc := f.byID(id)
	if acc == nil {
		return client.ErrNotFound
	}
	if f.byName(username) != nil {
		return client.ErrBadRequest
	}
	acc.Username = username
	return nil
}

func (f *fakeAPI) UpdateBirthday(ctx context.Context, id int64, birthday *timex.Date) error {
	if f.failAll != nil {
		return f.failAll
	}
	acc := f.byID(id)
	if acc == nil {
		return client.ErrNotFound
	}
	acc.Birthday = birthday
	return nil
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	return f.pingErr
}

func readerFromLines(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func newTestApp(api API, r *bufio.Reader) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{config: cfg, api: api, reader: r, out: &out}, &out
}

// stubPassword makes getPassword return pw without touching the terminal.
func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = old })
}
