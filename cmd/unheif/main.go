// Command unheif extracts the primary image bitstream from a
// HEIC/AVIF/AVIC file into an elementary-stream file.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/heifkit/unheif"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	app := &cli.App{
		Name:      "unheif",
		Usage:     "extract the primary image bitstream from a HEIC/AVIF/AVIC file",
		ArgsUsage: "<input> <output>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 2 {
				return cli.Exit("usage: unheif <input> <output>", 2)
			}
			return unpack(ctx.Args().Get(0), ctx.Args().Get(1))
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("unpack failed")
	}
}

func unpack(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := unheif.Unpack(in, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
