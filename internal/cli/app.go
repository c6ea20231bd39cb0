package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmarchuk/gatekeep/internal/models"
)

// App holds the interactive session state: the API client and, after a
// successful signup or login, the current session.
type App struct {
	client  *Client
	session *models.Session
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(serverAddr string) *App {
	return &App{
		client: NewClient(serverAddr),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) status() string {
	if a.session == nil {
		return "not logged in"
	}
	return a.session.User.Email
}

func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter your email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	session, err := a.client.Signup(ctx, name, email, password)
	if err != nil {
		fmt.Fprintln(a.out, "Signup failed:", err)
		return err
	}

	a.session = session
	fmt.Fprintf(a.out, "Welcome, %s!\n", session.User.Name)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter your email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	session, err := a.client.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintln(a.out, "Login failed:", err)
		return err
	}

	a.session = session
	fmt.Fprintf(a.out, "Welcome back, %s!\n", session.User.Name)
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	user, err := a.client.Me(ctx, a.session.Token)
	if err != nil {
		fmt.Fprintln(a.out, "Request failed:", err)
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
	return nil
}

func (a *App) List(ctx context.Context) error {
	page, err := a.client.Users(ctx, a.session.Token, 1, 20)
	if err != nil {
		fmt.Fprintln(a.out, "Request failed:", err)
		return err
	}
	for _, u := range page.Items {
		fmt.Fprintf(a.out, "%s  %s <%s>\n", u.ID, u.Name, u.Email)
	}
	fmt.Fprintf(a.out, "%d of %d users\n", page.Meta.Count, page.Meta.Total)
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.session = nil
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Run starts a simple read-eval-print loop. Errors from command handlers
// are reported by the handlers themselves; the loop keeps going until EOF
// or an explicit exit.
func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "gatekeep> %s > \n", a.status())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: whoami, list, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "whoami":
			if a.requireLogin() {
				_ = a.Whoami(ctx)
			}

		case "l", "list":
			if a.requireLogin() {
				_ = a.List(ctx)
			}

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return

		default:
			fmt.Fprintln(a.out, "Unknown command:", parts[0])
		}
	}
}

func (a *App) requireLogin() bool {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Please login first.")
		return false
	}
	return true
}
