// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package main

import (
	"context"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli"
)

func createCLIContext(ctx context.Context) *cli.Context {
	app := cli.NewApp()
	app.Metadata = map[string]interface{}{
		"context": ctx,
	}

	return cli.NewContext(app, flag.NewFlagSet("test", flag.ContinueOnError), nil)
}

func TestCliContextToContext(t *testing.T) {
	assert := assert.New(t)

	// no cli context
	_, err := cliContextToContext(nil)
	assert.Error(err)

	// missing go context in metadata
	app := cli.NewApp()
	app.Metadata = map[string]interface{}{}
	badCtx := cli.NewContext(app, flag.NewFlagSet("test", flag.ContinueOnError), nil)
	_, err = cliContextToContext(badCtx)
	assert.Error(err)

	ctx := context.Background()
	result, err := cliContextToContext(createCLIContext(ctx))
	assert.NoError(err)
	assert.Equal(ctx, result)
}

func TestBeforeSubcommandsBadLogFormat(t *testing.T) {
	assert := assert.New(t)

	app := cli.NewApp()
	app.Metadata = map[string]interface{}{}

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-format", "yaml", "")

	err := beforeSubcommands(cli.NewContext(app, set, nil))
	assert.Error(err)
}
