// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd provides subcommands of the mergebase binary.
package cmd

import (
	"code.mergebase.io/mergebase/modules/setting"

	"github.com/urfave/cli/v2"
)

// NewMainApp builds the cli application with every subcommand attached.
func NewMainApp() *cli.App {
	app := cli.NewApp()
	app.Name = "mergebase"
	app.Usage = "A self-hosted pull request and merge service"
	app.Version = setting.AppVer
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Set custom config file path",
		},
	}
	app.Commands = []*cli.Command{
		CmdWeb,
	}
	app.DefaultCommand = CmdWeb.Name
	return app
}
