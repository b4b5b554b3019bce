// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/presnap/pkg/config"
	"github.com/NVIDIA/presnap/pkg/logging"
	"github.com/NVIDIA/presnap/pkg/serializer"
)

const (
	name           = "presnap"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "endpoint configuration file path",
		Sources: cli.EnvVars(config.EnvConfigPath),
	}

	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "log level (debug, info, warn, error)",
		Sources: cli.EnvVars("PRESNAP_LOG_LEVEL"),
		Value:   "info",
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "result output file path (default: stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   "result output format (json, yaml, table)",
		Value:   string(serializer.FormatJSON),
	}
)

// Run builds the root command and executes it with the given arguments.
func Run(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:    name,
		Usage:   "Pre-deployment hypervisor safety snapshots",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Flags: []cli.Flag{
			configFlag,
			logLevelFlag,
		},
		Commands: []*cli.Command{
			snapshotCmd(),
			checkImagesCmd(),
		},
	}
	return cmd.Run(ctx, args)
}

// initLogging configures the default structured logger from the parsed
// flags. Called at the top of every command action.
func initLogging(cmd *cli.Command) {
	level := cmd.String("log-level")
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
}

// parseOutputFormat validates the format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q (supported: %v)",
			f, serializer.SupportedFormats())
	}
	return f, nil
}

// loadConfig reads and validates the endpoint configuration named by the
// config flag, the environment, or the default path.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	return config.Load(config.Path(cmd.String("config")))
}
