package admin

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/deferscky/stringeditor/internal/common"
	"github.com/urfave/cli/v2"
)

// UsersCommand returns the users subcommand group.
func UsersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage users",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List users, newest first",
				Action: usersList,
			},
			{
				Name:  "add",
				Usage: "Register a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "login",
						Aliases:  []string{"l"},
						Usage:    "Login of the new user",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "password-stdin",
						Usage: "Read the password from stdin instead of prompting",
					},
				},
				Action: usersAdd,
			},
		},
	}
}

func usersList(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	list, err := e.accounts.ListUsers(c.Context)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLOGIN\tCREATED")
	for _, u := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Login, u.CreatedAt.Local().Format(time.RFC3339))
	}
	return tw.Flush()
}

func usersAdd(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	var password []byte
	if c.Bool("password-stdin") {
		password, err = readPasswordFrom(e.stdin)
	} else {
		password, err = promptPassword(c.App.Writer)
	}
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(password)

	u, err := e.accounts.Register(c.Context, c.String("login"), string(password))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("login %q is already taken", c.String("login"))
		}
		return err
	}

	fmt.Fprintf(c.App.Writer, "registered %s with id %d\n", u.Login, u.ID)
	return nil
}
