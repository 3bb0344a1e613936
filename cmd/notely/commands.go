package main

import (
	"errors"
	"net/http"
	"time"

	"notely-be/pkg/client"

	"github.com/urfave/cli/v3"
)

var errNoToken = errors.New("no token: pass --token or set NOTELY_TOKEN")

// apiClient builds a client from the root flags.
func apiClient(cmd *cli.Command) (*client.Client, error) {
	token := cmd.String("token")
	if token == "" {
		return nil, errNoToken
	}
	// Generation streams for a while, so no overall timeout.
	return client.New(cmd.String("server"), token, &http.Client{Timeout: 0}), nil
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Stream a new note for a prompt (Ctrl-C cancels)",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the finished note as JSON",
			},
		},
		Action: runGenerate,
	}
}

func transformCommand() *cli.Command {
	return &cli.Command{
		Name:  "transform",
		Usage: "Render a section in another language or tone",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Usage:    "Section title",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "summary",
				Usage: "Section summary",
			},
			&cli.StringSliceFlag{
				Name:    "bullet",
				Aliases: []string{"b"},
				Usage:   "Section bullet (repeatable)",
			},
			&cli.StringFlag{
				Name:    "lang",
				Aliases: []string{"l"},
				Usage:   "Target language: english, hindi or hinglish",
				Value:   "hindi",
			},
			&cli.StringFlag{
				Name:  "tone",
				Usage: "Hinglish tone: neutral, casual or interview (implies --lang hinglish)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up after this long",
				Value: 60 * time.Second,
			},
		},
		Action: runTransform,
	}
}

func inlineCommand() *cli.Command {
	return &cli.Command{
		Name:      "inline",
		Usage:     "Simplify, expand or illustrate a piece of text",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "action",
				Aliases: []string{"a"},
				Usage:   "simplify, expand or example",
				Value:   "simplify",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up after this long",
				Value: 60 * time.Second,
			},
		},
		Action: runInline,
	}
}
