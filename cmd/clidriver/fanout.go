package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ngoclaw/clidriver/internal/config"
	"github.com/ngoclaw/clidriver/pkg/fanout"
)

func newFanoutCmd() *cobra.Command {
	var commands []string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "fanout",
		Short: "Run commands across every host in the inventory concurrently",
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

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(cfg.Hosts) == 0 {
				return fmt.Errorf("inventory has no hosts; populate ~/.clidriver/config.yaml or ./config.yaml")
			}

			if concurrency <= 0 {
				concurrency = cfg.Fanout.Concurrency
			}

			jobs := make([]fanout.Job, 0, len(cfg.Hosts))
			for _, h := range cfg.Hosts {
				b, err := builderFromEntry(h, logger)
				if err != nil {
					return fmt.Errorf("host %s: %w", h.Name, err)
				}
				jobs = append(jobs, fanout.Job{Host: h.Name, Builder: b, Commands: commands})
			}

			results := fanout.Run(jobs, concurrency)
			exitCode := 0
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", r.Host, r.Err)
					exitCode = 1
					continue
				}
				fmt.Printf("=== %s ===\n", r.Host)
				for _, resp := range r.Responses {
					printResponse(resp)
				}
			}
			if exitCode != 0 {
				os.Exit(exitCode)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "command to run (repeatable)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max hosts in flight at once (0 = inventory default)")
	_ = viper.BindPFlag("fanout.concurrency", cmd.Flags().Lookup("concurrency"))
	return cmd
}
