// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/cache"
	"code.mergebase.io/mergebase/modules/exctrack"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/notification"
	"code.mergebase.io/mergebase/modules/setting"
	"code.mergebase.io/mergebase/modules/vcs/shadow"
	"code.mergebase.io/mergebase/routers/api"
	"code.mergebase.io/mergebase/services/audit"
	"code.mergebase.io/mergebase/services/merge"
	webhook_service "code.mergebase.io/mergebase/services/webhook"

	"github.com/urfave/cli/v2"
)

// CmdWeb starts the API server.
var CmdWeb = &cli.Command{
	Name:   "web",
	Usage:  "Start the API server",
	Action: runWeb,
}

func runWeb(cliCtx *cli.Context) error {
	setting.Init(cliCtx.String("config"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Init(ctx); err != nil {
		log.Fatal("Failed to initialize database: %v", err)
	}
	if err := cache.Init(); err != nil {
		log.Fatal("Failed to initialize cache: %v", err)
	}
	if err := webhook_service.Init(); err != nil {
		log.Fatal("Failed to initialize webhook queue: %v", err)
	}
	defer webhook_service.Shutdown()

	notification.RegisterNotifier(audit.NewNotifier())
	notification.RegisterNotifier(webhook_service.NewNotifier())

	exceptions, err := exctrack.NewStore("", "web")
	if err != nil {
		log.Fatal("Failed to initialize exception store: %v", err)
	}

	handler := api.Routes(api.Options{
		Engine:     merge.NewEngine(shadow.NewManager()),
		Exceptions: exceptions,
	})

	addr := net.JoinHostPort(setting.Server.HTTPAddr, setting.Server.HTTPPort)
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown: %v", err)
		}
	}()

	log.Info("Listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
