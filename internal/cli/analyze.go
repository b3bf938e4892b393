package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// analyzeCommand creates the analyze command for inspecting document structure.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		maxLevel int
		asJSON   bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Show how a document will be classified and linked",
		Long: `Show how a document will be classified and linked.

The analyze command runs the parse and classification stages without
computing positions: which sections were found, what shape and color each
one gets, and which links the relation passes extracted. Use it to
understand a conversion before rendering, or with --json for scripting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), args[0], maxLevel, asJSON, noCache)
		},
	}

	cmd.Flags().IntVar(&maxLevel, "max-section-level", 0, "deepest heading level that starts a section (default 6)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable JSON on stdout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runAnalyze parses and classifies the document, then prints the summary.
func (c *CLI) runAnalyze(ctx context.Context, input string, maxLevel int, asJSON, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		SourcePath:      input,
		MaxSectionLevel: maxLevel,
		// Positions are irrelevant here; skip the simulation stages.
		NoForce:     true,
		NoCollision: true,
		Logger:      c.Logger,
	}

	doc, err := runner.Parse(ctx, opts)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", input, err)
	}
	sc, err := runner.BuildScene(ctx, doc, opts)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", input, err)
	}

	if asJSON {
		return printAnalysisJSON(sc)
	}
	printAnalysis(sc, input)
	return nil
}

// printAnalysis renders the human-readable section and link summary.
func printAnalysis(sc *scene.Scene, input string) {
	fmt.Println(StyleTitle.Render(sc.Title))
	printKeyValue("Sections", strconv.Itoa(len(sc.Nodes)))
	printKeyValue("Links", strconv.Itoa(len(sc.Links)))
	printNewline()

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(sc.Nodes))
	for _, n := range sc.Nodes {
		rows = append(rows, []string{
			n.ID,
			truncate(n.Title, 40),
			strconv.Itoa(n.Level),
			strconv.Itoa(n.WordCount),
			string(n.Shape),
			n.Color,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Title", "Lvl", "Words", "Shape", "Color").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	fmt.Println(t.Render())

	if len(sc.Links) > 0 {
		printNewline()
		for _, kind := range linkKinds(sc.Links) {
			printDetail("%s links: %d", kind.name, kind.count)
		}
	}

	printNewline()
	printNextStep("Convert", appName+" convert "+input)
}

// printAnalysisJSON writes the scene's structural data as JSON to stdout.
func printAnalysisJSON(sc *scene.Scene) error {
	out := struct {
		Title    string       `json:"title"`
		Sections []scene.Node `json:"sections"`
		Links    []scene.Link `json:"links,omitempty"`
	}{
		Title:    sc.Title,
		Sections: sc.Nodes,
		Links:    sc.Links,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = os.Stdout.Write(data)
	return err
}

// kindCount pairs a link kind with its occurrence count.
type kindCount struct {
	name  string
	count int
}

// linkKinds tallies links per kind, sorted by kind name for stable output.
func linkKinds(links []scene.Link) []kindCount {
	counts := make(map[string]int)
	for _, l := range links {
		counts[string(l.Kind)]++
	}
	kinds := make([]kindCount, 0, len(counts))
	for name, count := range counts {
		kinds = append(kinds, kindCount{name: name, count: count})
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].name < kinds[j].name })
	return kinds
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
