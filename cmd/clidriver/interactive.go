package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ngoclaw/clidriver/pkg/driver"
)

// eventScript mirrors driver.InteractiveEvent but with a YAML-friendly
// string pattern in place of a compiled regexp.
type eventScript struct {
	Input   string `yaml:"input"`
	Pattern string `yaml:"pattern"`
	Hidden  bool   `yaml:"hidden"`
}

func newInteractiveCmd() *cobra.Command {
	var scriptPath string

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Drive a scripted interactive sequence (e.g. password changes, reboots)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scriptPath == "" {
				return fmt.Errorf("--script is required")
			}
			raw, err := os.ReadFile(scriptPath)
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}
			var scripted []eventScript
			if err := yaml.Unmarshal(raw, &scripted); err != nil {
				return fmt.Errorf("parsing script: %w", err)
			}

			events := make([]driver.InteractiveEvent, len(scripted))
			for i, s := range scripted {
				re, err := regexp.Compile(s.Pattern)
				if err != nil {
					return fmt.Errorf("event %d: compiling pattern %q: %w", i, s.Pattern, err)
				}
				events[i] = driver.InteractiveEvent{Input: s.Input, Pattern: re, Hidden: s.Hidden}
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			builder, err := builderForHost(cmd, logger)
			if err != nil {
				return err
			}
			d, err := builder.Build()
			if err != nil {
				return err
			}
			if err := d.Open(); err != nil {
				return err
			}
			defer d.Close()

			result, err := d.SendInteractive(events)
			for _, step := range result.Steps {
				fmt.Println(step.Output)
			}
			if !result.IsSuccess() {
				fmt.Fprintln(os.Stderr, "one or more interactive steps failed")
			}
			return err
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "path to a YAML interactive event script")
	return cmd
}
