package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicgov.org/internal/calendar"
	"civicgov.org/internal/config"
	"civicgov.org/internal/httpapi"
	"civicgov.org/internal/meeting"
	"civicgov.org/internal/obs"
	"civicgov.org/internal/publish"
	"civicgov.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	configPath := flag.String("config", os.Getenv("CIVICGOV_CONFIG"), "Path to YAML config")
	flag.Parse()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	holidays, err := cfg.HolidayDates()
	if err != nil {
		log.Fatalf("config holidays: %v", err)
	}

	var (
		store   meeting.Store
		pgStore *pg.Store
	)
	if cfg.PostgresDSN != "" {
		pgStore, err = pg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store = pgStore
	} else {
		log.Println("no CIVICGOV_PG_DSN set, using in-memory store")
		store = meeting.NewMemStore()
	}

	stream := publish.New()
	engine := meeting.NewService(store,
		meeting.WithHolidaySource(calendar.NewStatic(holidays)),
		meeting.WithDefaultLeadHours(cfg.NoticeLeadHours),
		meeting.WithNoticePublisher(stream),
	)

	probe := httpapi.ReadyProbe{}
	if pgStore != nil {
		probe.DB = pgStore.DB()
	}
	api := httpapi.New(engine, probe, version, httpapi.WithStream(stream))

	handler := api.Handler()
	handler = httpapi.RateLimit(handler, cfg.RateBurst, cfg.RatePerSec)
	handler = httpapi.MaxBodyBytes(handler, 1<<20)
	handler = httpapi.CORS(handler)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.Logging(handler)
	handler = httpapi.RequestID(handler)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Long write timeout keeps SSE subscribers alive.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting civicgov-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
