// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/urfave/cli"

	"github.com/virtrunner/runtime/pkg/vmutils"
	"github.com/virtrunner/runtime/pkg/vmutils/vmtrace"
	"github.com/virtrunner/runtime/virtmem"
)

var memoryCLICommand = cli.Command{
	Name:  "memory",
	Usage: "manage the guest memory device configuration",
	Subcommands: []cli.Command{
		addMemoryCommand,
		checkMemoryCommand,
		listMemoryCommand,
	},
	Action: func(context *cli.Context) error {
		return cli.ShowSubcommandHelp(context)
	},
}

var checkMemoryCommand = cli.Command{
	Name:      "check",
	Usage:     "validate the memory devices of a runtime configuration",
	ArgsUsage: `check <configuration.toml>`,
	Flags:     []cli.Flag{},
	Action: func(context *cli.Context) error {
		ctx, err := cliContextToContext(context)
		if err != nil {
			return err
		}

		if !context.Args().Present() {
			return fmt.Errorf("Missing configuration file path")
		}

		return memoryCheckCommand(ctx, context.Args().First())
	},
}

var listMemoryCommand = cli.Command{
	Name:      "list",
	Usage:     "list the memory devices of a runtime configuration",
	ArgsUsage: `list <configuration.toml>`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "format",
			Value: "table",
			Usage: "output format ('table' or 'json')",
		},
	},
	Action: func(context *cli.Context) error {
		ctx, err := cliContextToContext(context)
		if err != nil {
			return err
		}

		if !context.Args().Present() {
			return fmt.Errorf("Missing configuration file path")
		}

		return memoryListCommand(ctx, context.Args().First(), context.String("format"))
	},
}

var addMemoryCommand = cli.Command{
	Name:      "add",
	Usage:     "check that a memory device could be added to a runtime configuration",
	ArgsUsage: `add <configuration.toml>`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "id",
			Usage: "unique id of the memory device",
		},
		cli.StringFlag{
			Name:  "block-size",
			Value: "4KiB",
			Usage: "resize granularity (accepts unit suffixes, e.g. 2MiB)",
		},
		cli.Uint64Flag{
			Name:  "node-id",
			Usage: "NUMA node to associate the device memory with (0 means no affinity)",
		},
		cli.StringFlag{
			Name:  "region-size",
			Usage: "maximum addressable extent (accepts unit suffixes)",
		},
		cli.StringFlag{
			Name:  "requested-size",
			Usage: "initial guest visible size (accepts unit suffixes)",
		},
	},
	Action: func(context *cli.Context) error {
		ctx, err := cliContextToContext(context)
		if err != nil {
			return err
		}

		if !context.Args().Present() {
			return fmt.Errorf("Missing configuration file path")
		}

		return memoryAddCommand(ctx, context.Args().First(), context)
	},
}

// formatMemoryDevices writes the registered memory devices to the given
// output.
type formatMemoryDevices interface {
	Write(registry *virtmem.Registry, file io.Writer) error
}

type formatMemoryTabular struct{}
type formatMemoryJSON struct{}

func (f formatMemoryTabular) Write(registry *virtmem.Registry, file io.Writer) error {
	// values used by runc
	flags := uint(0)
	minWidth := 12
	tabWidth := 1
	padding := 3

	w := tabwriter.NewWriter(file, minWidth, tabWidth, padding, ' ', flags)

	fmt.Fprint(w, "ID\tNUMA NODE\tBLOCK SIZE\tREGION SIZE\tREQUESTED SIZE\tACTIVE\n")
	for _, dev := range registry.Devices() {
		node := "-"
		if n, ok := dev.NUMANode(); ok {
			node = fmt.Sprintf("%d", n)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			dev.ID(),
			node,
			units.BytesSize(float64(dev.BlockSize())),
			units.BytesSize(float64(dev.RegionSize())),
			units.BytesSize(float64(dev.RequestedSize())),
			dev.Active())
	}

	return w.Flush()
}

func (f formatMemoryJSON) Write(registry *virtmem.Registry, file io.Writer) error {
	return json.NewEncoder(file).Encode(registry.Save())
}

func loadRegistry(configPath string) (vmutils.RuntimeConfig, *virtmem.Registry, error) {
	config, err := vmutils.LoadRuntimeConfig(configPath)
	if err != nil {
		return vmutils.RuntimeConfig{}, nil, err
	}

	registry, err := vmutils.BuildRegistry(config)
	if err != nil {
		return vmutils.RuntimeConfig{}, nil, err
	}

	return config, registry, nil
}

func memoryCheckCommand(ctx context.Context, configPath string) error {
	span, _ := vmtrace.Trace(ctx, runnerLog, "memory-check", "config", configPath)
	defer span.Finish()

	_, registry, err := loadRegistry(configPath)
	if err != nil {
		return err
	}

	var totalRegion uint64
	for _, dev := range registry.Devices() {
		totalRegion += dev.RegionSize()
	}

	hostMemKb, err := vmutils.GetHostMemorySizeKb(vmutils.ProcMemInfo)
	if err != nil {
		return err
	}

	if totalRegion > hostMemKb*1024 {
		runnerLog.WithField("total-region-size", totalRegion).Warn("configured memory regions exceed host memory")
	}

	fmt.Fprintf(defaultOutputFile, "%d memory devices validated\n", registry.Len())

	return nil
}

func memoryListCommand(ctx context.Context, configPath, format string) error {
	span, _ := vmtrace.Trace(ctx, runnerLog, "memory-list", "config", configPath)
	defer span.Finish()

	_, registry, err := loadRegistry(configPath)
	if err != nil {
		return err
	}

	var fs formatMemoryDevices
	switch format {
	case "table":
		fs = formatMemoryTabular{}
	case "json":
		fs = formatMemoryJSON{}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	return fs.Write(registry, defaultOutputFile)
}

func memoryAddCommand(ctx context.Context, configPath string, cliContext *cli.Context) error {
	span, _ := vmtrace.Trace(ctx, runnerLog, "memory-add", "config", configPath)
	defer span.Finish()

	_, registry, err := loadRegistry(configPath)
	if err != nil {
		return err
	}

	blockSize, err := vmutils.ParseMemorySize(cliContext.String("block-size"))
	if err != nil {
		return err
	}

	regionSize, err := vmutils.ParseMemorySize(cliContext.String("region-size"))
	if err != nil {
		return err
	}

	requestedSize, err := vmutils.ParseMemorySize(cliContext.String("requested-size"))
	if err != nil {
		return err
	}

	cfg := virtmem.MemoryDeviceConfig{
		ID:            cliContext.String("id"),
		BlockSize:     blockSize,
		NodeID:        uint16(cliContext.Uint64("node-id")),
		RegionSize:    regionSize,
		RequestedSize: requestedSize,
	}

	if err := registry.Insert(cfg); err != nil {
		return err
	}

	fmt.Fprintf(defaultOutputFile, "memory device %q accepted\n", cfg.ID)

	return nil
}
