package cmd

import (
	"fmt"

	"github.com/catharsys/anybase/internal/document"
	"github.com/catharsys/anybase/util/logging"
	"github.com/urfave/cli/v2"
)

var (
	docCmd = &cli.Command{
		Name:  "doc",
		Usage: "Work with DTI-tagged configuration documents.",
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Load documents and check their type.",
				ArgsUsage: "<file>...",
				Action:    docCheckAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dti",
						Usage: "the DTI the documents have to match.",
						Value: document.AnyDTI,
					},
				},
			},
		},
	}
)

func docCheckAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.Exit("expected at least one document", 2)
	}

	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	loader := document.NewLoader(log)

	failed := 0
	for _, path := range ctx.Args().Slice() {
		doc, err := loader.Load(path, document.LoadOptions{DTI: ctx.String("dti")})
		if err != nil {
			fmt.Fprintf(ctx.App.ErrWriter, "%s: %s\n", path, err)
			failed++
			continue
		}

		fmt.Fprintf(ctx.App.Writer, "%s: %v (%v)\n", path, doc[document.KeyDTI], doc[document.KeyID])
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d documents failed", failed, ctx.NArg()), 1)
	}

	return nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, docCmd)
}
