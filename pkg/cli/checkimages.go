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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/presnap/pkg/imagecheck"
	"github.com/NVIDIA/presnap/pkg/serializer"
)

func checkImagesCmd() *cli.Command {
	return &cli.Command{
		Name:                  "check-images",
		EnableShellCompletion: true,
		Usage:                 "Compare recorded image digests against their registries",
		Description: `Resolve the current registry digest for every image listed in the config's
images section and classify each as fresh, stale, or unresolvable.

The report is advisory: the command exits zero even when images are stale,
so it can run alongside the snapshot without blocking a deploy on registry
availability.

# Examples

Print the report:
  presnap check-images

Write the report for later inspection:
  presnap check-images --output images.yaml --format yaml`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "use HTTP instead of HTTPS for registry connections",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "skip TLS certificate verification for registry connections",
			},
			outputFlag,
			formatFlag,
		},
		Action: runCheckImages,
	}
}

func runCheckImages(ctx context.Context, cmd *cli.Command) error {
	initLogging(cmd)

	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if len(cfg.Images) == 0 {
		slog.Info("no images recorded in config, nothing to check")
		return nil
	}

	r := &imagecheck.RegistryResolver{
		PlainHTTP:   cmd.Bool("plain-http"),
		InsecureTLS: cmd.Bool("insecure-tls"),
	}
	rep, err := imagecheck.Check(ctx, r, cfg.Images)
	if err != nil {
		return err
	}

	w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	defer serializer.CloseQuietly(w)
	return w.Serialize(ctx, rep)
}
