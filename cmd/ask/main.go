// Command ask is a terminal client for the answer engine: it streams a
// cited answer for one query and prints the sources behind it.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	perplexity "github.com/hackice20/perplexity-clone/pkg/sdk"
)

func main() {
	app := &cli.App{
		Name:      "ask",
		Usage:     "Ask a question, get a live web-searched answer with citations",
		ArgsUsage: "\"your question\"",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Answer engine base URL",
				Value:   "http://localhost:3001",
				EnvVars: []string{"PERPLEXITY_SERVER"},
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print raw markdown without the citation summary",
			},
			&cli.BoolFlag{
				Name:  "no-chunking",
				Usage: "Print every delta immediately instead of word-sized chunks",
			},
		},
		Action: askCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func askCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return cli.Exit("usage: ask \"your question\"", 1)
	}

	client := perplexity.NewClient(
		c.String("server"),
		perplexity.WithChunking(!c.Bool("no-chunking")),
	)

	answer, err := client.Ask(c.Context, query, perplexity.Events{
		OnSources: printSources,
		OnDelta:   func(text string) { fmt.Print(text) },
	})
	fmt.Println()

	if err != nil {
		// Partial output already printed stays on screen; report the
		// failure after it rather than reverting anything.
		return cli.Exit(fmt.Sprintf("stream failed: %v", err), 1)
	}

	if !c.Bool("raw") {
		printCitationSummary(answer)
	}
	return nil
}

func printSources(sources []perplexity.Source) {
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "no sources found")
		return
	}
	fmt.Fprintln(os.Stderr, "Sources:")
	for i, s := range sources {
		fmt.Fprintf(os.Stderr, "  [%d] %s — %s\n", i+1, s.Title, s.DisplayLink)
	}
	fmt.Fprintln(os.Stderr)
}

// printCitationSummary lists which sources the answer actually cited,
// with their links. Invalid citation tokens are left alone: they render
// as ordinary markdown links in the answer body.
func printCitationSummary(answer *perplexity.Answer) {
	cited := map[int]bool{}
	var order []int
	for _, c := range perplexity.Citations(answer.Text, answer.Sources) {
		if c.Valid && !cited[c.Number] {
			cited[c.Number] = true
			order = append(order, c.Number)
		}
	}
	if len(order) == 0 {
		return
	}

	fmt.Println("\nCited:")
	for _, n := range order {
		src, _ := perplexity.ResolveCitation(n, answer.Sources)
		fmt.Printf("  [%d] %s\n      %s\n", n, src.Title, src.Link)
	}
}
