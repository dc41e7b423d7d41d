package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"archivault/pkg/app"
	"archivault/pkg/config"
	"archivault/pkg/server"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Config
	cfgFile := flag.String("config", "", "config file (default is $HOME/.av/config.yaml)")
	flag.Parse()

	if err := config.Load(*cfgFile); err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Init Core Application
	application, err := app.NewApp(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to initialize app: %v", err)
	}
	fmt.Println("✅ ArchiVault Core initialized.")

	// 3. Setup HTTP Server
	addr := viper.GetString("server.addr")
	srv := &http.Server{
		Addr:    addr,
		Handler: server.New(application.Service),
	}

	// 4. Serve + Graceful Shutdown
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Printf("🚀 HTTP Server listening on %s...\n", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\n⚠️  Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
	fmt.Println("👋 Server stopped.")
}
