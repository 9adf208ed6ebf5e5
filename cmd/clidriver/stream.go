package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream [command]",
		Short: "Run a command and print its output as it arrives, without buffering the full result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			stream, err := d.SendCommandStream(args[0])
			if err != nil {
				return err
			}
			for {
				chunk, finished, err := stream.NextChunk()
				if err != nil {
					return err
				}
				if len(chunk) > 0 {
					os.Stdout.Write(chunk)
				}
				if finished {
					break
				}
			}

			resp, err := stream.IntoResponse()
			if err != nil {
				return err
			}
			if !resp.IsSuccess() {
				fmt.Fprintf(os.Stderr, "\ncommand failed: %s\n", resp.FailureMessage)
			}
			return nil
		},
	}
	return cmd
}
