package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
)

const shutdownTimeout = 15 * time.Second

func (app *application) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cors.New(cors.Options{
		AllowedOrigins:   app.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "x-access-token"},
	})

	srv := &http.Server{
		Addr:         app.cfg.Server.Address,
		Handler:      c.Handler(app.routes()),
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
	}

	finisherDone := startRentalFinisher(ctx, app.rentalService, app.cfg.Worker.FinisherInterval, app.logger)

	serverErr := make(chan error, 1)
	go func() {
		app.logger.WithField("addr", srv.Addr).Info("starting server")
		serverErr <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		stop()
	case <-ctx.Done():
		app.logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = errors.Wrap(shutdownErr, "shutdown")
	}
	<-finisherDone
	app.close(shutdownCtx)
	return err
}

func (app *application) close(ctx context.Context) {
	app.hub.Close()
	app.dispatcher.Wait()
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.WithError(err).Warn("closing redis")
		}
	}
	if err := app.store.Close(ctx); err != nil {
		app.logger.WithError(err).Warn("closing store")
	}
}
