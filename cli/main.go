// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/virtrunner/runtime/pkg/vmutils/vmtrace"
)

// name is the official name of the runtime.
const name = "virtrunner"

const usage = `hot-pluggable guest memory configuration utility`

// version is set at build time.
var version = "0.1.0"

// runnerLog is the logger used to record all messages.
var runnerLog = logrus.WithField("name", name)

// defaultOutputFile is the default output file to write the command output
// to.
var defaultOutputFile = os.Stdout

var runtimeFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug output for logging",
	},
	cli.StringFlag{
		Name:  "log-format",
		Value: "text",
		Usage: "set the format used by logs ('text' or 'json')",
	},
	cli.BoolFlag{
		Name:  "trace",
		Usage: "enable tracing",
	},
}

var runtimeCommands = []cli.Command{
	memoryCLICommand,
	versionCLICommand,
}

// cliContextToContext extracts the go context stored in the cli app
// metadata.
func cliContextToContext(c *cli.Context) (context.Context, error) {
	if c == nil {
		return nil, errors.New("need cli.Context")
	}

	ctx, ok := c.App.Metadata["context"].(context.Context)
	if !ok {
		return nil, errors.New("invalid or missing context in Metadata")
	}

	return ctx, nil
}

func beforeSubcommands(c *cli.Context) error {
	if c.GlobalBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	}

	switch c.GlobalString("log-format") {
	case "text":
		// logrus default
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.999999999Z07:00"})
	default:
		return fmt.Errorf("unknown log-format %q", c.GlobalString("log-format"))
	}

	vmtrace.TracingSet = c.GlobalBool("trace")
	vmtrace.SetLogger(runnerLog)

	if _, err := vmtrace.CreateTracer(name); err != nil {
		return err
	}

	span, ctx := vmtrace.Trace(context.Background(), runnerLog, name)
	span.SetTag("subsystem", "runtime")

	c.App.Metadata["context"] = ctx

	return nil
}

func afterSubcommands(c *cli.Context) error {
	// Before may have failed without storing a context.
	if ctx, err := cliContextToContext(c); err == nil {
		vmtrace.StopTracing(ctx)
	}

	return nil
}

func createRuntimeApp(args []string) error {
	app := cli.NewApp()

	app.Name = name
	app.Usage = usage
	app.Version = version
	app.Flags = runtimeFlags
	app.Commands = runtimeCommands
	app.Before = beforeSubcommands
	app.After = afterSubcommands
	app.EnableBashCompletion = true
	app.Metadata = map[string]interface{}{}

	return app.Run(args)
}

func main() {
	if err := createRuntimeApp(os.Args); err != nil {
		runnerLog.WithError(err).Error("runtime failure")
		cli.OsExiter(1)
	}
}
