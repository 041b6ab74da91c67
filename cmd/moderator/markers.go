package main

import (
	"fmt"
	"sort"

	"github.com/elum-utils/moderator/classifier"

	cli "github.com/urfave/cli/v2"
)

var markersCmd = &cli.Command{
	Name:  "markers",
	Usage: "manage advertising markers stored in --markers-db",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "print built-in and stored markers",
			Action: func(cctx *cli.Context) error {
				stored, err := storedMarkers(cctx)
				if err != nil {
					return err
				}
				for _, m := range classifier.DefaultMarkers {
					fmt.Printf("%s\tbuilt-in\n", m)
				}
				for _, m := range stored {
					fmt.Printf("%s\tstored\n", m)
				}
				return nil
			},
		},
		{
			Name:      "add",
			Usage:     "store one or more markers",
			ArgsUsage: "<marker>...",
			Action: func(cctx *cli.Context) error {
				return editMarkers(cctx, true)
			},
		},
		{
			Name:      "remove",
			Usage:     "delete one or more stored markers",
			ArgsUsage: "<marker>...",
			Action: func(cctx *cli.Context) error {
				return editMarkers(cctx, false)
			},
		},
	},
}

func storedMarkers(cctx *cli.Context) ([]string, error) {
	path := cctx.String("markers-db")
	if path == "" {
		return nil, nil
	}
	st, closeDB, err := openMarkers(cctx.Context, path)
	if err != nil {
		return nil, err
	}
	defer closeDB()
	out, err := st.GetTokens(cctx.Context)
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func editMarkers(cctx *cli.Context, add bool) error {
	path := cctx.String("markers-db")
	if path == "" {
		return fmt.Errorf("--markers-db is required")
	}
	if cctx.Args().Len() == 0 {
		return fmt.Errorf("at least one marker is required")
	}
	st, closeDB, err := openMarkers(cctx.Context, path)
	if err != nil {
		return err
	}
	defer closeDB()

	for _, marker := range cctx.Args().Slice() {
		if add {
			err = st.AddToken(cctx.Context, marker)
		} else {
			err = st.RemoveToken(cctx.Context, marker)
		}
		if err != nil {
			return fmt.Errorf("marker %q: %w", marker, err)
		}
	}
	return nil
}
