package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"notely-be/pkg/stream"
	"notely-be/pkg/variant"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

var (
	dim     = color.New(color.Faint).SprintFunc()
	accent  = color.New(color.FgCyan, color.Bold).SprintFunc()
	heading = color.New(color.FgGreen).SprintFunc()
)

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if prompt == "" {
		return errors.New("a prompt is required")
	}
	api, err := apiClient(cmd)
	if err != nil {
		return err
	}

	ctrl := stream.NewController(api)
	printer := &progressPrinter{seen: make(map[string]stream.StepStatus)}
	ctrl.OnUpdate = printer.update

	note, err := ctrl.Generate(ctx, prompt)
	fmt.Println()
	if err != nil {
		return errors.New(ctrl.LastError())
	}
	if note == nil {
		fmt.Println(dim("cancelled"))
		return nil
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(note)
	}
	printNote(note)
	return nil
}

// progressPrinter writes step transitions and streamed text as they arrive.
type progressPrinter struct {
	seen    map[string]stream.StepStatus
	printed int
}

func (p *progressPrinter) update(s stream.Snapshot) {
	for _, step := range s.Steps {
		if p.seen[step.ID] == step.Status {
			continue
		}
		p.seen[step.ID] = step.Status
		if step.Status == stream.StepActive {
			fmt.Fprintf(os.Stderr, "%s %s\n", accent("›"), step.Message)
		}
	}
	if len(s.Text) > p.printed {
		fmt.Print(dim(s.Text[p.printed:]))
		p.printed = len(s.Text)
	}
}

func printNote(n *stream.GeneratedNote) {
	fmt.Println(accent(n.Title))
	if n.Summary != "" {
		fmt.Println(n.Summary)
	}
	for _, s := range n.Sections {
		fmt.Println()
		printVariant(s)
	}
	if len(n.Tags) > 0 {
		fmt.Println()
		fmt.Println(dim("tags: " + strings.Join(n.Tags, ", ")))
	}
}

func printVariant(v variant.Variant) {
	fmt.Println(heading(v.Title))
	if v.Summary != "" {
		fmt.Println(v.Summary)
	}
	for _, b := range v.Bullets {
		fmt.Printf("  • %s\n", b)
	}
}

func runTransform(ctx context.Context, cmd *cli.Command) error {
	lang, err := variant.ParseLanguage(cmd.String("lang"))
	if err != nil {
		return err
	}
	var tone variant.Tone
	if raw := cmd.String("tone"); raw != "" {
		if tone, err = variant.ParseTone(raw); err != nil {
			return err
		}
	}
	api, err := apiClient(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	cache := variant.NewCache(api)
	section := variant.NewSection("cli", variant.Variant{
		Title:   cmd.String("title"),
		Summary: cmd.String("summary"),
		Bullets: cmd.StringSlice("bullet"),
	}, 0, 0)

	// A tone only applies to Hinglish, so it implies that language.
	if tone != "" {
		section, err = cache.SelectTone(ctx, section, tone)
	} else {
		section, err = cache.SelectLanguage(ctx, section, lang)
	}
	if err != nil {
		return err
	}

	printVariant(section.Current)
	return nil
}

func runInline(ctx context.Context, cmd *cli.Command) error {
	text := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if text == "" {
		return errors.New("text is required")
	}
	api, err := apiClient(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	out, err := api.Inline(ctx, text, cmd.String("action"))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
