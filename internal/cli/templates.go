package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template"
)

// templatesCommand creates the templates command listing layout templates.
func (c *CLI) templatesCommand() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the available layout templates",
		Long: `List the available layout templates.

Each template arranges document sections according to a different reading
structure. Pass a template to 'convert' with --template, or set one in the
document frontmatter ("template: timeline") or in markdown3d.toml.

With --pick, an interactive list opens and the chosen name is printed to
stdout, so it can feed a shell substitution:

  markdown3d convert doc.md -t $(markdown3d templates --pick)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pick {
				return runTemplatePicker()
			}
			listTemplates()
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "pick a template interactively and print its name")

	return cmd
}

// listTemplates prints every registered template with its description.
func listTemplates() {
	fmt.Println(StyleTitle.Render("Layout Templates"))
	printNewline()
	for _, name := range template.Names() {
		fmt.Printf("  %s  %s\n",
			StyleHighlight.Render(fmt.Sprintf("%-16s", name)),
			StyleDim.Render(template.Describe(name)))
	}
	printNewline()
	printNextStep("Use one", appName+" convert doc.md --template "+template.Names()[0])
}

// runTemplatePicker opens the interactive picker and prints the selection.
func runTemplatePicker() error {
	m := NewTemplatePickerModel(template.Names())
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(TemplatePickerModel)
	if !ok || fm.Selected == "" {
		printDetail("No selection made")
		return nil
	}

	fmt.Println(fm.Selected)
	return nil
}
