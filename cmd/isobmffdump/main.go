// Command isobmffdump prints the box tree of an ISOBMFF file, with raw
// payload bytes for leaf boxes.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/heifkit/unheif/heif/bmff"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	app := &cli.App{
		Name:      "isobmffdump",
		Usage:     "print the box tree of an ISOBMFF file",
		ArgsUsage: "<input>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return cli.Exit("usage: isobmffdump <input>", 2)
			}
			return dump(ctx.Args().Get(0))
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("dump failed")
	}
}

func dump(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cur, err := bmff.NewCursor(f)
	if err != nil {
		return err
	}
	boxes, err := bmff.ParseAll(cur)
	if err != nil {
		return err
	}
	return bmff.Dump(os.Stdout, boxes)
}
