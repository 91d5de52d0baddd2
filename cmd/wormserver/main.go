// Command wormserver is the process entrypoint: it wires config,
// logging, the room manager, and the HTTP/WebSocket surface together
// and runs until a termination signal arrives.
//
// Grounded directly on the teacher's main.go: the same flag-parsed
// listen address, zap logger bootstrap with a deferred Sync, a
// ServeMux with a static file handler plus admin/metrics routes, and
// signal.Notify-based graceful shutdown.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wormarena/internal/admin"
	"wormarena/internal/config"
	"wormarena/internal/log"
	"wormarena/internal/roommanager"
	"wormarena/transport/ws"
)

func main() {
	var addr, logFile, webDir string
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.StringVar(&logFile, "log", "", "log file path (rotated via lumberjack); empty logs to stderr")
	flag.StringVar(&webDir, "web", "web", "static client asset directory")
	flag.Parse()

	if err := log.Init(logFile); err != nil {
		panic(err)
	}
	defer log.Sync()
	logger := log.Named("main")

	cfg := config.LoadEnv()
	mgr := roommanager.Get(cfg, nowMs)

	adapter := ws.NewAdapter()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", adapter.Handler(mgr, cfg))
	mux.HandleFunc("/admin/config", admin.HandleConfig(mgr))
	mux.HandleFunc("/admin/rooms", admin.HandleRooms(mgr))
	mux.HandleFunc("/metrics", admin.HandleMetrics(mgr))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if _, err := os.Stat(webDir); err == nil {
		mux.Handle("/", http.FileServer(http.Dir(webDir)))
	}

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Infof("wormarena listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("listen: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
