package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	luainterp "github.com/aretw0/tendril/pkg/interpreters/lua"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file.lua> <action> [payload-json]",
	Short: "Dispatch a Lua-scripted action against a map state",
	Long: `Loads a Lua script whose global functions are actions over a
map-shaped state, dispatches one of them and prints the resulting
state as JSON. The initial state comes from --state.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		initialJSON, _ := cmd.Flags().GetString("state")

		var initial luainterp.State
		if err := json.Unmarshal([]byte(initialJSON), &initial); err != nil {
			return fmt.Errorf("parse --state JSON: %w", err)
		}

		var payload any
		if len(args) == 3 {
			if err := json.Unmarshal([]byte(args[2]), &payload); err != nil {
				return fmt.Errorf("parse payload JSON: %w", err)
			}
		}

		eng := luainterp.NewEngine(luainterp.WithLogger(logging.New(slog.LevelInfo)))
		defer eng.Close()
		if err := eng.LoadFile(args[0]); err != nil {
			return err
		}
		if !eng.Has(args[1]) {
			return fmt.Errorf("script defines no function %q", args[1])
		}

		app, err := tendril.New(initial)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Dispatch(eng.Action(args[1]), payload); err != nil {
			return err
		}

		out, err := json.MarshalIndent(app.State(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	},
}

func init() {
	scriptCmd.Flags().String("state", "{}", "Initial state as a JSON object")
	rootCmd.AddCommand(scriptCmd)
}
