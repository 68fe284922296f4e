package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdir/internal/client/client"
	"github.com/dmitrijs2005/userdir/internal/common"
)

// getSimpleText, getPassword and getOptionalDate are swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getPassword     = GetPassword
	getOptionalDate = GetOptionalDate
)

var errNotLoggedIn = errors.New("not logged in")

func (a *App) readCredentials() (string, []byte, error) {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", nil, err
	}
	if username == "" {
		return "", nil, errors.New("username must not be empty")
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return username, password, nil
}

// Register creates an account. The new account is not logged in.
func (a *App) Register(ctx context.Context) error {
	username, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	birthday, err := getOptionalDate(a.reader, "Enter birthday", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	acc, err := a.api.Register(ctx, username, string(password), birthday)
	if err != nil {
		return describe(err)
	}

	fmt.Fprintf(a.out, "Account %d created for %s\n", acc.ID, acc.Username)
	return nil
}

// Login authenticates and marks the account online.
func (a *App) Login(ctx context.Context) error {
	username, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	acc, err := a.api.Login(rctx, username, string(password))
	if err != nil {
		return describe(err)
	}
	a.account = acc

	if !acc.Status {
		if err := a.api.TogglePresence(rctx, acc.ID); err != nil {
			return describe(err)
		}
		acc.Status = true
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", acc.Username)
	return nil
}

// Logout marks the account offline and forgets it locally. The local state
// is cleared even if the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	acc := a.account
	if acc == nil {
		return errNotLoggedIn
	}
	a.account = nil

	if acc.Status {
		ctx, cancel := a.requestContext(ctx)
		defer cancel()
		if err := a.api.TogglePresence(ctx, acc.ID); err != nil {
			return describe(err)
		}
	}

	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// describe turns transport failures into a short user-facing message.
func describe(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return fmt.Errorf("server unavailable: %w", err)
	}
	return err
}
