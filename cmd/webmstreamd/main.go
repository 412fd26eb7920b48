// Command webmstreamd runs the recording ingest and streaming daemon: it
// accepts pushed WebM recordings over WebSocket, tails each one as it
// grows, and fans out live Clusters to any number of streaming consumers.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/config"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/diagnostics"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/registry"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/transport"
)

var (
	configPath = flag.String("config", "", "path to a JSON config file (optional; defaults are used if absent)")
	showHelp   = flag.Bool("h", false, "show help")
	version    = flag.Bool("version", false, "show version")
)

var appVersion = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("webmstreamd v%s\n", appVersion)
		return
	}
	if *showHelp {
		flag.Usage()
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(cfg.RecordingsDir, 0o755); err != nil {
		log.Fatalf("recordings dir: %v", err)
	}

	logs := diagnostics.NewLogBuffer(500)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	reg := registry.New()
	mux := http.NewServeMux()
	transport.Register(mux, transport.Deps{
		Registry:                  reg,
		RecordingsDir:             cfg.RecordingsDir,
		SubscriberChannelCapacity: cfg.SubscriberChannelCapacity,
		Logs:                      logs,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		log.Printf("webmstreamd listening on %s (recordings: %s)", cfg.ListenAddr, cfg.RecordingsDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
