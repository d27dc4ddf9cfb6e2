package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var flagSet []string

var runCmd = &cobra.Command{
	Use:   "run <script.risor>",
	Short: "Run a Risor script against the registry",
	Long:  "Runs a Risor script with the reflection globals (class, uses, resolve, annotations, log, ...). --set key=value adds string globals, e.g. --set class_name=App\\\\Model\\\\User.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

func init() {
	runCmd.Flags().StringArrayVar(&flagSet, "set", nil, "extra global as key=value (repeatable)")
}

func runScript(cmd *cobra.Command, args []string) error {
	extras, err := parseSetFlags(flagSet)
	if err != nil {
		return err
	}
	script, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving script path %q: %w", args[0], err)
	}

	engine, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	return engine.RunScript(cmdContext(cmd), script, extras)
}

// parseSetFlags turns repeated key=value flags into script globals.
func parseSetFlags(values []string) (map[string]any, error) {
	extras := make(map[string]any, len(values))
	for _, kv := range values {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		extras[key] = value
	}
	return extras, nil
}
