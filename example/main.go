// FILE: lixenwraith/dotenv/example/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lixenwraith/dotenv"
)

// AppConfig is decoded from the validated env entries
type AppConfig struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT"`
	Timeout  time.Duration `env:"TIMEOUT"`
	Features []string      `env:"FEATURES"`
}

const initialEnv = `# Demo server settings
APP_ENV=DEV
APP_HOST=localhost
APP_PORT=8080
APP_TIMEOUT=30s
APP_FEATURES="metrics,tracing"
APP_URL=http://${APP_HOST}:${APP_PORT}
`

func main() {
	dir, err := os.MkdirTemp("", "dotenv-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	envPath := filepath.Join(dir, "app.env")
	if err := os.WriteFile(envPath, []byte(initialEnv), 0644); err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var cfg AppConfig
	store, err := dotenv.NewBuilder().
		WithWorkDir(dir).
		WithCacheTTL(time.Minute).
		WithLogger(logger).
		WithPrefix("APP").
		WithRules(func(v *dotenv.Validator) {
			v.Required("APP_HOST").IsString().NotEmpty()
			v.Required("APP_PORT").IsInteger().Expr("value > 0 && value < 65536")
			v.IfPresent("APP_TIMEOUT").Custom(func(_ string, value dotenv.Value, _ *dotenv.Map) bool {
				_, err := time.ParseDuration(value.String())
				return err == nil
			})
		}).
		BuildAndScan(&cfg)
	if err != nil {
		log.Fatal("Failed to load env:", err)
	}
	log.Printf("config: %+v", cfg)

	url, _ := store.Get("APP_URL")
	dev, _ := store.IsDev()
	log.Printf("url=%s dev=%v", url, dev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := store.Watch(ctx)
	if err != nil {
		log.Fatal("Failed to watch env:", err)
	}

	// Change the port after a moment to show a reload
	go func() {
		time.Sleep(500 * time.Millisecond)
		updated := []byte("APP_ENV=DEV\nAPP_HOST=localhost\nAPP_PORT=9090\nAPP_TIMEOUT=30s\n")
		if err := os.WriteFile(envPath, updated, 0644); err != nil {
			log.Println("write failed:", err)
		}
	}()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil {
				log.Println("reload failed:", ev.Err)
				continue
			}
			if ev.Removed {
				log.Printf("removed %s (was %s)", ev.Key, ev.OldValue)
				continue
			}
			log.Printf("changed %s: %s -> %s", ev.Key, ev.OldValue, ev.Value)
		case <-timeout:
			return
		case <-ctx.Done():
			return
		}
	}
}
