package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var commands []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a session and run one or more commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			commands = append(commands, args...)
			if len(commands) == 0 {
				return fmt.Errorf("at least one command is required, via --command or as positional args")
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

			resps, err := d.SendCommands(commands)
			for _, resp := range resps {
				printResponse(resp)
			}
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "command to run (repeatable)")
	return cmd
}
