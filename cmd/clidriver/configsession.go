package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngoclaw/clidriver/pkg/configsession"
	"github.com/ngoclaw/clidriver/pkg/driver"
	"github.com/ngoclaw/clidriver/pkg/platform/vendors/arista"
	"github.com/ngoclaw/clidriver/pkg/platform/vendors/arrcus"
	"github.com/ngoclaw/clidriver/pkg/platform/vendors/juniper"
	"github.com/ngoclaw/clidriver/pkg/platform/vendors/nokia"
)

func newConfigSessionCmd() *cobra.Command {
	var commands []string
	var sessionName string
	var action string
	var validateOnly bool
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "config-session",
		Short: "Enter a vendor configuration session, run commands, then commit/abort/detach",
		RunE: func(cmd *cobra.Command, args []string) error {
			commands = append(commands, args...)

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

			sess, err := openSession(d, sessionName)
			if err != nil {
				return err
			}

			for _, c := range commands {
				resp, err := sess.Send(c)
				if err != nil {
					_ = sess.Abort()
					return err
				}
				printResponse(resp)
			}

			if showDiff {
				if dd, ok := sess.(configsession.Diffable); ok {
					diff, err := dd.Diff()
					if err != nil {
						return err
					}
					fmt.Println(diff)
				} else {
					fmt.Fprintln(os.Stderr, "this platform's session does not support Diff")
				}
			}

			if validateOnly {
				vv, ok := sess.(configsession.Validatable)
				if !ok {
					return fmt.Errorf("this platform's session does not support Validate")
				}
				result, err := vv.Validate()
				if err != nil {
					return err
				}
				if !result.Valid {
					fmt.Fprintf(os.Stderr, "validation failed: %v\n", result.Errors)
				}
				return sess.Detach()
			}

			switch action {
			case "commit":
				return sess.Commit()
			case "abort":
				return sess.Abort()
			case "detach":
				return sess.Detach()
			default:
				return fmt.Errorf("unknown --action %q (want commit, abort, or detach)", action)
			}
		},
	}

	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "command to run inside the session (repeatable)")
	cmd.Flags().StringVar(&sessionName, "session-name", "clidriver-session", "named session handle (Arista only)")
	cmd.Flags().StringVar(&action, "action", "commit", "commit, abort, or detach")
	cmd.Flags().BoolVar(&validateOnly, "validate", false, "run Validate and detach instead of committing")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "print Diff before acting")
	return cmd
}

func openSession(d *driver.Driver, sessionName string) (configsession.Session, error) {
	switch d.Platform().Name {
	case juniper.Name:
		return configsession.NewJuniperSession(d)
	case arista.Name:
		return configsession.NewAristaSession(d, sessionName)
	case nokia.Name:
		return configsession.NewNokiaSession(d)
	case arrcus.Name:
		return configsession.NewConfDSession(d)
	default:
		return configsession.NewGenericSession(d)
	}
}
