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
	"os"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/presnap/pkg/config"
	"github.com/NVIDIA/presnap/pkg/defaults"
	"github.com/NVIDIA/presnap/pkg/imagecheck"
	"github.com/NVIDIA/presnap/pkg/proxmox"
	"github.com/NVIDIA/presnap/pkg/resolver"
	"github.com/NVIDIA/presnap/pkg/serializer"
	"github.com/NVIDIA/presnap/pkg/snapshot"
	"github.com/NVIDIA/presnap/pkg/task"
)

func snapshotCmd() *cli.Command {
	return &cli.Command{
		Name:                  "snapshot",
		EnableShellCompletion: true,
		Usage:                 "Take a pre-deployment safety snapshot of this guest",
		Description: `Resolve which guest on which configured hypervisor endpoint carries the
target hostname, then snapshot it before a deployment proceeds.

For containers, bind-mount points (mpX entries) are detached from the
container configuration for the duration of the snapshot and reattached
afterwards, on every exit path. For virtual machines the snapshot is taken
directly, without memory state.

The command exits non-zero when the guest cannot be resolved, the snapshot
cannot be created, the hypervisor task fails, or the wait times out. Run it
as a pre-deploy hook and gate the deploy on its exit code.

# Examples

Snapshot the guest this command runs inside:
  presnap snapshot

Snapshot another guest, with the deploy's image freshness report:
  presnap snapshot --hostname web01 --check-images

Keep the machine-readable result:
  presnap snapshot --output result.json --format json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "hostname",
				Usage: "target guest hostname (default: this machine's hostname)",
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "interval between task status polls",
				Value: defaults.TaskPollInterval,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "maximum time to wait for the snapshot task",
				Value: defaults.TaskTimeout,
			},
			&cli.BoolFlag{
				Name:  "check-images",
				Usage: "also report image freshness from the config's images section (advisory)",
			},
			outputFlag,
			formatFlag,
		},
		Action: runSnapshot,
	}
}

func runSnapshot(ctx context.Context, cmd *cli.Command) error {
	initLogging(cmd)

	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	hostname := cmd.String("hostname")
	if hostname == "" {
		if hostname, err = os.Hostname(); err != nil {
			return fmt.Errorf("failed to determine local hostname: %w", err)
		}
	}

	if cmd.Bool("check-images") {
		reportImageFreshness(ctx, cfg)
	}

	endpoints, clients := buildEndpoints(cfg)
	match, err := resolver.Resolve(ctx, endpoints, hostname)
	if err != nil {
		return err
	}

	client := clients[match.Endpoint.Name]
	waiter := task.NewWaiter(client,
		cmd.Duration("poll-interval"), cmd.Duration("timeout"))
	orch := snapshot.New(client, waiter)

	res, runErr := orch.Run(ctx, snapshot.Guest{
		Kind:     match.Kind,
		VMID:     match.VMID,
		Hostname: match.Hostname,
		Endpoint: match.Endpoint.Name,
	})

	if res != nil {
		w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
		defer serializer.CloseQuietly(w)
		if serr := w.Serialize(ctx, res); serr != nil {
			slog.Error("failed to write run result", "error", serr)
		}
	}

	return runErr
}

// buildEndpoints creates one API client per configured host, keyed by URL.
func buildEndpoints(cfg *config.Config) ([]resolver.Endpoint, map[string]*proxmox.Client) {
	endpoints := make([]resolver.Endpoint, 0, len(cfg.Hosts))
	clients := make(map[string]*proxmox.Client, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		c := proxmox.New(h)
		endpoints = append(endpoints, resolver.Endpoint{Name: h.URL, API: c})
		clients[h.URL] = c
	}
	return endpoints, clients
}

// reportImageFreshness runs the advisory digest comparison. Failures are
// logged, never fatal to the snapshot run.
func reportImageFreshness(ctx context.Context, cfg *config.Config) {
	if len(cfg.Images) == 0 {
		slog.Info("no images recorded in config, skipping freshness check")
		return
	}

	rep, err := imagecheck.Check(ctx, &imagecheck.RegistryResolver{}, cfg.Images)
	if err != nil {
		slog.Warn("image freshness check aborted", "error", err)
		return
	}
	slog.Info("image freshness report",
		"images", len(rep.Entries),
		"stale", rep.Stale,
		"unresolvable", rep.Unresolvable)
}
