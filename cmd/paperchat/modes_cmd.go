package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"paperchat/internal/modes"
)

// modesCmd prints the knowledge modes the backend accepts.
var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the knowledge modes",
	RunE:  runModes,
}

func runModes(cmd *cobra.Command, args []string) error {
	var sb strings.Builder
	sb.WriteString("# Knowledge modes\n\n")
	sb.WriteString("| Mode | Key | Answers from |\n")
	sb.WriteString("|------|-----|--------------|\n")
	for _, m := range modes.All() {
		sb.WriteString(fmt.Sprintf("| %s %s | `%s` | %s |\n",
			m.Icon(), m.DisplayName(), m.Key(), m.Description()))
	}
	sb.WriteString(fmt.Sprintf("\nThe default is `%s`. Change it with `/mode` in the chat or `ui.default_mode` in the config.\n",
		cfg.UI.DefaultMode))

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		fmt.Print(sb.String())
		return nil
	}
	out, err := renderer.Render(sb.String())
	if err != nil {
		fmt.Print(sb.String())
		return nil
	}
	fmt.Print(out)
	return nil
}
