package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/config"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/handler"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/hub"
)

// App is the main application container.
type App struct {
	Config  *config.Config
	Hub     *hub.Hub
	Handler *handler.WebsocketHandler
	Log     *slog.Logger
}

func main() {
	app, cleanup, err := InitializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()

	go app.Hub.Run()
	defer app.Hub.Stop()

	r := mux.NewRouter()
	r.HandleFunc("/ws", app.Handler.HandleConnection).Methods("GET")
	r.HandleFunc("/healthz", app.Handler.HandleHealth).Methods("GET")

	srv := &http.Server{
		Addr:    app.Config.ListenAddr,
		Handler: r,
	}

	go func() {
		app.Log.Info("server starting", "addr", app.Config.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	app.Log.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		app.Log.Error("shutdown error", "error", err)
	}
}
