package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pressly/cli"

	"github.com/javajack/xlcomplete"
	"github.com/javajack/xlcomplete/backend"
	"github.com/javajack/xlcomplete/preview"
	"github.com/javajack/xlcomplete/xlsxdata"
)

func main() {
	if err := cli.ParseAndRun(context.Background(), newRootCommand(), os.Args[1:], nil); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:      "xlcomplete",
		ShortHelp: "Tab completion for spreadsheet formulas",
		SubCommands: []*cli.Command{
			{
				Name:      "suggest",
				ShortHelp: "Print completion suggestions for a partial formula",
				Flags: cli.FlagsFunc(func(fs *flag.FlagSet) {
					fs.String("workbook", "", "xlsx file to read cell data from")
					fs.String("cell", "A1", "cell being edited, in A1 notation")
					fs.String("input", "", "partial formula text")
					fs.Int("cursor", -1, "cursor position in bytes (default: end of input)")
					fs.String("ollama", "", "Ollama server URL for remote completions (empty: disabled)")
					fs.Bool("preview", false, "attach computed previews to suggestions")
					fs.Bool("json", false, "emit suggestions as JSON")
				}),
				Exec: runSuggest,
			},
		},
	}
}

func runSuggest(ctx context.Context, s *cli.State) error {
	var (
		workbookPath = cli.GetFlag[string](s, "workbook")
		cellName     = cli.GetFlag[string](s, "cell")
		input        = cli.GetFlag[string](s, "input")
		cursor       = cli.GetFlag[int](s, "cursor")
		ollamaURL    = cli.GetFlag[string](s, "ollama")
		withPreview  = cli.GetFlag[bool](s, "preview")
		asJSON       = cli.GetFlag[bool](s, "json")
	)

	cell, err := xlcomplete.ParseCellRef(cellName)
	if err != nil {
		return fmt.Errorf("invalid -cell: %w", err)
	}

	if cursor < 0 {
		cursor = len(input)
	}

	cc := xlcomplete.CompletionContext{
		Input:  input,
		Cursor: cursor,
		Cell:   cell,
	}
	if workbookPath != "" {
		wb, err := xlsxdata.Open(workbookPath)
		if err != nil {
			return err
		}
		defer wb.Close()
		if cc.Cell.Sheet == "" {
			cc.Cell.Sheet = wb.ActiveSheet()
		}
		cc.Cells = wb
		cc.Schema = wb
	}

	var engineOpts []xlcomplete.EngineOption
	if ollamaURL != "" {
		engineOpts = append(engineOpts,
			xlcomplete.WithClient(backend.NewOllamaClient(backend.WithBaseURL(ollamaURL))))
	}
	engine := xlcomplete.NewEngine(engineOpts...)

	var suggestOpts []xlcomplete.SuggestOption
	if withPreview {
		suggestOpts = append(suggestOpts, xlcomplete.WithPreview(preview.NewEvaluator().Evaluate))
	}

	suggestions := engine.GetSuggestions(ctx, cc, suggestOpts...)

	if asJSON {
		return printJSON(suggestions)
	}
	for _, sg := range suggestions {
		line := fmt.Sprintf("%-14s %.2f  %s", sg.Type, sg.Confidence, sg.Text)
		if sg.Preview != nil {
			line += fmt.Sprintf("  => %v", sg.Preview)
		}
		fmt.Println(line)
	}
	return nil
}

type suggestionJSON struct {
	Text        string  `json:"text"`
	DisplayText string  `json:"display_text"`
	Type        string  `json:"type"`
	Confidence  float64 `json:"confidence"`
	Preview     any     `json:"preview,omitempty"`
}

func printJSON(suggestions []xlcomplete.Suggestion) error {
	out := make([]suggestionJSON, len(suggestions))
	for i, s := range suggestions {
		out[i] = suggestionJSON{
			Text:        s.Text,
			DisplayText: s.DisplayText,
			Type:        s.Type.String(),
			Confidence:  s.Confidence,
			Preview:     s.Preview,
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
