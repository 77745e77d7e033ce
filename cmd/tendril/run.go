package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/adapters/term"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo notes app interactively in the terminal",
	Long: `Runs the demo notes app with a terminal renderer. Each line you type
becomes a note; /clear resets the state and /quit exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := cli.LoadConfig(configPath)
		if err != nil {
			return err
		}

		logger := logging.New(cfg.Level())

		renderer := term.NewRenderer(renderNotes)
		app, reg, closeStore, err := cli.NewNotesApp(cfg, logger,
			tendril.WithRenderer[cli.Notes](renderer),
		)
		if err != nil {
			return err
		}
		defer closeStore()
		defer app.Close()

		tui.PrintBanner()
		fmt.Println("Type a note and press enter. /clear resets, /quit exits.")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())

			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/clear":
				if err := reg.Dispatch(app.Dispatcher(), "clear", nil); err != nil {
					return err
				}
			default:
				if err := reg.Dispatch(app.Dispatcher(), "update-text", line); err != nil {
					return err
				}
				if err := reg.Dispatch(app.Dispatcher(), "submit", nil); err != nil {
					return err
				}
			}
		}
	},
}

func renderNotes(state cli.Notes) string {
	var b strings.Builder
	b.WriteString("# Notes\n\n")
	fmt.Fprintf(&b, "status: **%s**\n\n", state.Status)
	if len(state.Items) == 0 {
		b.WriteString("_no notes yet_\n")
		return b.String()
	}
	for _, item := range state.Items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(runCmd)
}
