// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package main

import (
	"github.com/urfave/cli"

	"github.com/virtrunner/runtime/pkg/vmutils/vmtrace"
)

var versionCLICommand = cli.Command{
	Name:  "version",
	Usage: "display version details",
	Action: func(context *cli.Context) error {
		ctx, err := cliContextToContext(context)
		if err != nil {
			return err
		}

		span, _ := vmtrace.Trace(ctx, runnerLog, "version")
		defer span.Finish()

		cli.VersionPrinter(context)
		return nil
	},
}
