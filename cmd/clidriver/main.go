// Command clidriver exercises pkg/driver against one or many hosts from the
// command line: single commands, interactive prompts, live-streaming output,
// bounded-concurrency fanout, and vendor configuration sessions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	root := &cobra.Command{
		Use:   "clidriver",
		Short: "Multi-vendor SSH screen-scraping CLI driver",
	}

	root.PersistentFlags().String("host", "", "target host (name in inventory, or address)")
	root.PersistentFlags().Int("port", 22, "SSH port")
	root.PersistentFlags().String("username", "", "SSH username")
	root.PersistentFlags().String("password", "", "SSH password")
	root.PersistentFlags().String("key-path", "", "path to a private key file")
	root.PersistentFlags().String("platform", "", "platform name (e.g. arista_eos, juniper_junos, nokia_sros, arrcus_arcos, linux)")
	root.PersistentFlags().Duration("timeout", 0, "per-operation timeout (0 = driver default)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "console", "log format: console, json")

	_ = viper.BindPFlags(root.PersistentFlags())
	viper.SetEnvPrefix("CLIDRIVER")
	viper.AutomaticEnv()

	root.AddCommand(
		newRunCmd(),
		newInteractiveCmd(),
		newStreamCmd(),
		newFanoutCmd(),
		newConfigSessionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
