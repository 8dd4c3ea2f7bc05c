// Package admin implements the string editor's administrative CLI. It
// works directly on the database file, so it is meant to be run next to
// the server or while it is stopped.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/deferscky/stringeditor/internal/buildinfo"
	"github.com/deferscky/stringeditor/internal/cryptox"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/config"
	"github.com/deferscky/stringeditor/internal/server/repositories/repomanager"
	"github.com/deferscky/stringeditor/internal/server/services"
	"github.com/deferscky/stringeditor/internal/server/sessions"
	"github.com/urfave/cli/v2"
)

const envKey = "env"

// hasherParams is a test seam.
var hasherParams = cryptox.DefaultParams

// env is what every command needs; it lives in App.Metadata between
// Before and After.
type env struct {
	db       *sql.DB
	accounts *services.AccountService
	history  *services.HistoryService
	stdin    io.Reader
}

// App creates the admin CLI. Output goes to stdout, passwords piped with
// --password-stdin are read from stdin.
func App(stdin io.Reader, stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "string-editor-admin",
		Usage:     "Inspect and manage the string editor database",
		Version:   buildinfo.Version(),
		Writer:    stdout,
		ErrWriter: stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the SQLite database file",
				EnvVars: []string{"STRING_EDITOR_DB_PATH"},
				Value:   config.DefaultDatabasePath,
			},
			&cli.IntFlag{
				Name:    "min-password-length",
				Usage:   "Minimum length for passwords of new users",
				EnvVars: []string{"STRING_EDITOR_PASSWORD_MIN_LENGTH"},
				Value:   config.DefaultPasswordMinLength,
			},
		},
		Commands: []*cli.Command{
			UsersCommand(),
			HistoryCommand(),
		},
		Before: func(c *cli.Context) error {
			return open(c, stdin)
		},
		After: func(c *cli.Context) error {
			if e, ok := c.App.Metadata[envKey].(*env); ok {
				return e.db.Close()
			}
			return nil
		},
	}
}

func open(c *cli.Context, stdin io.Reader) error {
	// nothing to open for help output
	switch c.Args().First() {
	case "", "help", "h":
		return nil
	}

	db, rm, err := repomanager.Open(context.Background(), c.String("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	log := logging.Discard()
	// sessions only live inside the server process; the table here is never read
	table := sessions.New()
	hasher := cryptox.NewHasher(hasherParams)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[envKey] = &env{
		db:       db,
		accounts: services.NewAccountService(db, rm, table, hasher, c.Int("min-password-length"), nil, log),
		history:  services.NewHistoryService(db, rm, nil, log),
		stdin:    stdin,
	}
	return nil
}

func getEnv(c *cli.Context) (*env, error) {
	e, ok := c.App.Metadata[envKey].(*env)
	if !ok {
		return nil, fmt.Errorf("database is not open")
	}
	return e, nil
}
