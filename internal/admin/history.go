package admin

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/deferscky/stringeditor/internal/common"
	"github.com/urfave/cli/v2"
)

// HistoryCommand prints the latest operations of one user.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the latest operations of a user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "login",
				Aliases:  []string{"l"},
				Usage:    "Login of the user",
				Required: true,
			},
		},
		Action: historyShow,
	}
}

func historyShow(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	u, err := e.accounts.FindUser(c.Context, c.String("login"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user %q", c.String("login"))
		}
		return err
	}

	ops, err := e.history.History(c.Context, u.ID)
	if err != nil {
		return err
	}

	if len(ops) == 0 {
		fmt.Fprintln(c.App.Writer, "no operations")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTIME\tMS\tPARAMETERS\tRESULT")
	for _, op := range ops {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			op.ID, op.Type, op.OperationTime.Local().Format(time.RFC3339), op.ExecutionTimeMs, op.Parameters, op.Result)
	}
	return tw.Flush()
}
