package cmd

import (
	"fmt"
	"strings"

	"github.com/catharsys/anybase/internal/dti"
	"github.com/urfave/cli/v2"
)

var (
	dtiCmd = &cli.Command{
		Name:  "dti",
		Usage: "Inspect and match DTI strings.",
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Check whether a config DTI satisfies a target DTI.",
				ArgsUsage: "<config> <target>",
				Action:    dtiCheckAction,
			},
			{
				Name:      "split",
				Usage:     "Print the type elements and version of a DTI.",
				ArgsUsage: "<dti>",
				Action:    dtiSplitAction,
			},
			{
				Name:      "join",
				Usage:     "Append type elements to a DTI.",
				ArgsUsage: "<dti> <element>...",
				Action:    dtiJoinAction,
			},
		},
	}
)

func dtiCheckAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.Exit("expected a config and a target DTI", 2)
	}

	m, err := dti.Check(ctx.Args().Get(0), ctx.Args().Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if !m.OK {
		fmt.Fprintln(ctx.App.Writer, m.Message)
		return cli.Exit("", 1)
	}

	fmt.Fprintln(ctx.App.Writer, "ok")

	return nil
}

func dtiSplitAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.Exit("expected a DTI", 2)
	}

	d, err := dti.Split(ctx.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	fmt.Fprintf(ctx.App.Writer, "type: %s\n", strings.Join(d.Type, " "))
	fmt.Fprintf(ctx.App.Writer, "version: %s\n", d.Version)

	return nil
}

func dtiJoinAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.Exit("expected a DTI", 2)
	}

	joined, err := dti.Join(ctx.Args().First(), ctx.Args().Tail()...)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	fmt.Fprintln(ctx.App.Writer, joined)

	return nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, dtiCmd)
}
