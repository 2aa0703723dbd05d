// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"code.mergebase.io/mergebase/cmd"
	"code.mergebase.io/mergebase/modules/log"
)

func main() {
	app := cmd.NewMainApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal("Failed to run app with %s: %v", os.Args, err)
	}
}
