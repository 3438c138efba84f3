package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kzkhanhacg547/FRC/internal/auth"
	"github.com/Kzkhanhacg547/FRC/internal/config"
	"github.com/Kzkhanhacg547/FRC/internal/repo"
	"github.com/Kzkhanhacg547/FRC/internal/server"
	"github.com/Kzkhanhacg547/FRC/internal/store"
)

func main() {
	log := logrus.New()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"), log)
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.Open(cfg.DataDir, log)
	if err != nil {
		log.Fatal(err)
	}

	gate := auth.New(cfg.Admin.Username, []byte(cfg.Admin.PasswordHash), []byte(cfg.Secret))
	srv := server.New(repo.NewPosts(st), repo.NewComments(st), gate, log)

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("http shutdown")
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
		}
	}

	// one final persist so the durable copy matches memory at exit
	if err := st.Close(); err != nil {
		log.WithError(err).Error("final persist failed")
		os.Exit(1)
	}
}
