package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saveblush/gallery-node/core/config"
	"github.com/saveblush/gallery-node/core/sql"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/gallery"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/cron"
)

func main() {
	flag.Parse()

	// Init logger
	logger.InitLogger()

	// Init configuration
	err := config.InitConfig()
	if err != nil {
		logger.Log.Panicf("init configuration error: %s", err)
	}

	// Init connection database
	// the store is optional: without it sessions run on in-memory defaults
	cfdb := &sql.Configuration{
		Host:         config.CF.Database.GallerySQL.Host,
		Port:         config.CF.Database.GallerySQL.Port,
		Username:     config.CF.Database.GallerySQL.Username,
		Password:     config.CF.Database.GallerySQL.Password,
		DatabaseName: config.CF.Database.GallerySQL.DatabaseName,
		MaxIdleConns: config.CF.Database.GallerySQL.MaxIdleConns,
		MaxOpenConns: config.CF.Database.GallerySQL.MaxOpenConns,
		MaxLifetime:  config.CF.Database.GallerySQL.MaxLifetime,
	}
	session, err := sql.InitConnection(cfdb)
	if err != nil {
		logger.Log.Warnf("init connection db error: %s", err)
	} else {
		sql.Database = session.Database
		sql.Connected = true

		if !config.CF.App.Environment.Production() {
			sql.DebugDatabase()
		}

		_ = sql.Migration(sql.Database)
	}

	// Remote post source
	source := boorusource.NewService()

	// Cron
	cron := cron.NewService(source)
	cron.Start()

	// Init gallery surface
	gl := gallery.NewGallery(source, cron)
	handler := gl.Serve()

	// Start app
	addr := flag.String("addr", fmt.Sprintf(":%d", config.CF.App.Port), "http service address")
	server := &http.Server{
		Addr:    *addr,
		Handler: handler,
	}
	server.SetKeepAlivesEnabled(true)

	go func() {
		err = server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Panicf("App start error: %s", err)
		}
	}()
	logger.Log.Infof("App start on: %s", *addr)

	// Shutdown app
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Close cron
	go cron.Stop()
	logger.Log.Info("Cron closed")

	// Close db
	if sql.Connected {
		go sql.CloseConnection(sql.Database)
		logger.Log.Info("Database connection closed")
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownRelease()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		logger.Log.Panicf("App shutdown error: %s", err)
	}
	logger.Log.Info("Gracefully shutting down")
}
