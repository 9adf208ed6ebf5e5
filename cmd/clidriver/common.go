package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ngoclaw/clidriver/internal/config"
	"github.com/ngoclaw/clidriver/pkg/driver"
	"github.com/ngoclaw/clidriver/pkg/logging"

	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/arista"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/arrcus"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/juniper"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/linux"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/nokia"
)

// newLogger builds the process logger from the bound --log-level/--log-format flags.
func newLogger() (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
	})
}

// builderForHost resolves a single target (by inventory name, falling back
// to treating --host as a bare address) into a driver.Builder, applying any
// flag overrides on top of whatever the inventory entry provides.
func builderForHost(cmd *cobra.Command, logger *zap.Logger) (*driver.Builder, error) {
	host, _ := cmd.Flags().GetString("host")
	if host == "" {
		return nil, fmt.Errorf("--host is required")
	}

	entry := config.Host{Name: host, Address: host, Port: 22}
	if cfg, err := config.Load(); err == nil {
		if h, ok := cfg.HostByName(host); ok {
			entry = h
		}
	}

	if v, _ := cmd.Flags().GetInt("port"); v != 0 && v != 22 {
		entry.Port = v
	}
	if entry.Port == 0 {
		entry.Port = 22
	}
	if v, _ := cmd.Flags().GetString("username"); v != "" {
		entry.Username = v
	}
	if v, _ := cmd.Flags().GetString("password"); v != "" {
		entry.Password = v
	}
	if v, _ := cmd.Flags().GetString("key-path"); v != "" {
		entry.KeyPath = v
	}
	if v, _ := cmd.Flags().GetString("platform"); v != "" {
		entry.Platform = v
	}
	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		entry.Timeout = v
	}

	return builderFromEntry(entry, logger)
}

func builderFromEntry(h config.Host, logger *zap.Logger) (*driver.Builder, error) {
	b := driver.NewBuilder(h.Address).
		Port(h.Port).
		Username(h.Username).
		Platform(h.Platform).
		Logger(logger)

	if h.KeyPath != "" {
		pem, err := os.ReadFile(h.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading key file %s: %w", h.KeyPath, err)
		}
		b = b.PrivateKey(pem, h.KeyPassphrase)
	} else {
		b = b.Password(h.Password)
	}

	if h.Timeout > 0 {
		b = b.Timeout(h.Timeout)
	}
	return b, nil
}

func printResponse(resp driver.Response) {
	fmt.Println(resp.Result)
	if !resp.IsSuccess() {
		fmt.Fprintf(os.Stderr, "command failed: %s (matched prompt %q, elapsed %s)\n",
			resp.FailureMessage, resp.MatchedPrompt, resp.Elapsed)
	}
}
