package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/userdir/internal/client/models"
)

func (a *App) List(ctx context.Context) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	accs, err := a.api.List(ctx)
	if err != nil {
		return describe(err)
	}
	if len(accs) == 0 {
		fmt.Fprintln(a.out, "No accounts")
		return nil
	}
	for _, acc := range accs {
		fmt.Fprintln(a.out, acc)
	}
	return nil
}

// Show prints one account. arg is an id or a username; when empty the user
// is prompted for it.
func (a *App) Show(ctx context.Context, arg string) error {
	if arg == "" {
		var err error
		arg, err = getSimpleText(a.reader, "Enter username or id", a.out)
		if err != nil {
			return err
		}
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	var (
		acc *models.Account
		err error
	)
	if id, perr := strconv.ParseInt(arg, 10, 64); perr == nil {
		acc, err = a.api.Get(ctx, id)
	} else {
		acc, err = a.api.GetByUsername(ctx, arg)
	}
	if err != nil {
		return describe(err)
	}

	fmt.Fprintln(a.out, acc)
	return nil
}

// Me refreshes and prints the logged-in account.
func (a *App) Me(ctx context.Context) error {
	if a.account == nil {
		return errNotLoggedIn
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	acc, err := a.api.Get(ctx, a.account.ID)
	if err != nil {
		return describe(err)
	}
	a.account = acc

	fmt.Fprintln(a.out, acc)
	return nil
}

func (a *App) ToggleStatus(ctx context.Context) error {
	if a.account == nil {
		return errNotLoggedIn
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	if err := a.api.TogglePresence(ctx, a.account.ID); err != nil {
		return describe(err)
	}
	a.account.Status = !a.account.Status

	fmt.Fprintf(a.out, "You are now %s\n", a.account.Presence())
	return nil
}

func (a *App) Rename(ctx context.Context) error {
	if a.account == nil {
		return errNotLoggedIn
	}

	name, err := getSimpleText(a.reader, "Enter new username", a.out)
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("username must not be empty")
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	if err := a.api.UpdateUsername(ctx, a.account.ID, name); err != nil {
		return describe(err)
	}
	a.account.Username = name

	fmt.Fprintf(a.out, "Username changed to %s\n", name)
	return nil
}

// Birthday sets the birthday of the logged-in account; an empty answer
// clears it.
func (a *App) Birthday(ctx context.Context) error {
	if a.account == nil {
		return errNotLoggedIn
	}

	birthday, err := getOptionalDate(a.reader, "Enter birthday", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	if err := a.api.UpdateBirthday(ctx, a.account.ID, birthday); err != nil {
		return describe(err)
	}
	a.account.Birthday = birthday

	if birthday == nil {
		fmt.Fprintln(a.out, "Birthday cleared")
	} else {
		fmt.Fprintf(a.out, "Birthday set to %s\n", birthday)
	}
	return nil
}
