package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"restaurant_menu/internal/client"
)

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "menuctl",
		Usage:     "manage the restaurant menu from the terminal",
		Writer:    out,
		ErrWriter: errOut,
		// main reports errors and picks the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "menu server base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"MENU_SERVER"},
			},
			&cli.StringFlag{
				Name:    "session-file",
				Usage:   "where the session cookie is kept between commands",
				Value:   defaultSessionFile(),
				EnvVars: []string{"MENU_SESSION_FILE"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "give up on a single HTTP request after this long",
				Value: 30 * time.Second,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "sign in and remember the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "read from the terminal when omitted"},
				},
				Action: loginAction,
			},
			{
				Name:   "logout",
				Usage:  "end the session",
				Action: logoutAction,
			},
			{
				Name:   "whoami",
				Usage:  "show the signed-in user",
				Action: whoamiAction,
			},
			{
				Name:  "menu",
				Usage: "browse and edit menu items",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list menu items, newest first",
						Action: menuListAction,
					},
					{
						Name:  "delete",
						Usage: "delete a menu item (admin only)",
						Flags: []cli.Flag{
							&cli.Int64Flag{Name: "id", Required: true},
						},
						Action: menuDeleteAction,
					},
				},
			},
		},
	}
}

func newClient(c *cli.Context) (*client.Client, error) {
	return client.New(c.String("server"), client.WithHTTPClient(&http.Client{Timeout: c.Duration("timeout")}))
}

// session builds a client for the configured server, seeded with any saved cookie.
func session(c *cli.Context) (*client.Client, error) {
	api, err := newClient(c)
	if err != nil {
		return nil, err
	}
	saved, err := loadSession(c.String("session-file"))
	if err != nil {
		return nil, err
	}
	if saved.Token != "" && saved.Server == c.String("server") {
		api.SetSessionToken(saved.Token)
	}
	return api, nil
}

func loginNavigator(c *cli.Context) client.Navigator {
	return client.NavigatorFunc(func(path string) {
		if path == client.LoginPath {
			fmt.Fprintln(c.App.ErrWriter, "Please sign in: menuctl login --email <email>")
		}
	})
}

func loginAction(c *cli.Context) error {
	api, err := newClient(c)
	if err != nil {
		return err
	}

	password := c.String("password")
	if password == "" {
		fmt.Fprint(c.App.Writer, "Password: ")
		raw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(c.App.Writer)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	}

	state := client.NewAuthState(api, loginNavigator(c))
	res, err := state.Login(c.Context, client.Credentials{Email: c.String("email"), Password: password})
	if err != nil {
		return cli.Exit(state.Snapshot().Error, 1)
	}

	if err := saveSession(c.String("session-file"), savedSession{Server: c.String("server"), Token: api.SessionToken()}); err != nil {
		return err
	}
	role := "user"
	if res.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(c.App.Writer, "Signed in as %s (%s)\n", res.User.Username, role)
	return nil
}

func logoutAction(c *cli.Context) error {
	api, err := session(c)
	if err != nil {
		return err
	}
	state := client.NewAuthState(api, client.NavigatorFunc(func(string) {}))
	if err := state.Logout(c.Context); err != nil {
		return cli.Exit(state.Snapshot().Error, 1)
	}
	if err := clearSession(c.String("session-file")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Signed out")
	return nil
}

func whoamiAction(c *cli.Context) error {
	api, err := session(c)
	if err != nil {
		return err
	}
	res, err := api.Verify(c.Context)
	if err != nil {
		return cli.Exit(client.UserMessage(err), 1)
	}
	fmt.Fprintf(c.App.Writer, "%s <%s> role=%s admin=%t\n", res.User.Username, res.User.Email, res.User.Role, res.IsAdmin)
	return nil
}

func menuListAction(c *cli.Context) error {
	api, err := session(c)
	if err != nil {
		return err
	}
	items, err := api.ListMenu(c.Context)
	if err != nil {
		return cli.Exit(client.UserMessage(err), 1)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE")
	for _, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\n", item.ID, item.Title, strings.TrimSpace(item.Category), item.Price)
	}
	return tw.Flush()
}

func menuDeleteAction(c *cli.Context) error {
	api, err := session(c)
	if err != nil {
		return err
	}
	guard := client.NewGuard(api, loginNavigator(c))
	if err := guard.Check(c.Context); err != nil {
		return cli.Exit("You are not authorized to access this page", 1)
	}

	id := c.Int64("id")
	if err := api.DeleteMenuItem(c.Context, id); err != nil {
		return cli.Exit(client.UserMessage(err), 1)
	}
	fmt.Fprintf(c.App.Writer, "Deleted menu item %d\n", id)
	return nil
}
