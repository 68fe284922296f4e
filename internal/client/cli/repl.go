package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, arg string) error
	Me(ctx context.Context) error
	ToggleStatus(ctx context.Context) error
	Rename(ctx context.Context) error
	Birthday(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them to a until
// "exit"/"quit", EOF or ctx cancellation. Commands share reader for their
// own prompts, so the loop must not read ahead.
//
//	Not logged in: help, register, login, (l)ist, show [name|id], exit
//	Logged in:     help, (l)ist, show [name|id], me, status, rename,
//	               birthday, logout, exit
//
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ud %s> ", statusFn()))
		line, err := readLine(ctx, reader)
		if ctx.Err() != nil || (err != nil && line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		arg := strings.Join(parts[1:], " ")

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, show [name|id], me, status, rename, birthday, logout, exit")
			} else {
				printlnFn("Available commands: register, login, (l)ist, show [name|id], exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "l", "list":
			err = a.List(ctx)

		case "show":
			err = a.Show(ctx, arg)

		case "me", "status", "rename", "birthday", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			err = dispatchAccount(ctx, a, cmd)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatchAccount(ctx context.Context, a execIface, cmd string) error {
	switch cmd {
	case "me":
		return a.Me(ctx)
	case "status":
		return a.ToggleStatus(ctx)
	case "rename":
		return a.Rename(ctx)
	case "birthday":
		return a.Birthday(ctx)
	default:
		return a.Logout(ctx)
	}
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one line from reader, giving up when ctx is done. On
// cancellation the pending read is abandoned; the caller must stop using
// reader afterwards.
func readLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()

	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
