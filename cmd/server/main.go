package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bharatvest/sim-engine/internal/advisor"
	"github.com/bharatvest/sim-engine/internal/api"
	"github.com/bharatvest/sim-engine/internal/clock"
	"github.com/bharatvest/sim-engine/internal/config"
	"github.com/bharatvest/sim-engine/internal/events"
	"github.com/bharatvest/sim-engine/internal/expense"
	"github.com/bharatvest/sim-engine/internal/history"
	"github.com/bharatvest/sim-engine/internal/metrics"
	"github.com/bharatvest/sim-engine/internal/model"
	"github.com/bharatvest/sim-engine/internal/profile"
	"github.com/bharatvest/sim-engine/internal/session"
	"github.com/bharatvest/sim-engine/internal/sim"
	"github.com/bharatvest/sim-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("database migration failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
			slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL.String())
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Simulation session ---
	basis, err := sim.ParseBasis(cfg.ChangeBasis)
	if err != nil {
		slog.Error("invalid CHANGE_BASIS", "err", err)
		os.Exit(1)
	}
	sess := session.New(session.Config{
		TickInterval: cfg.TickInterval,
		Basis:        basis,
		Seed:         cfg.SimSeed,
	})

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	sess.Subscribe(wsHub)
	spawn(func() { wsHub.Run(ctx) })

	// --- Kafka ---
	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewPublisher(events.NewWriter(cfg.KafkaBrokers), cfg.KafkaTickTopic, cfg.KafkaTradeTopic, 256)
		sess.Subscribe(pub)
		spawn(func() { pub.Run(ctx) })

		consumer := events.NewConsumer(events.NewReader(cfg.KafkaBrokers, cfg.KafkaIntentTopic, cfg.KafkaGroupID), sess)
		spawn(func() {
			if err := consumer.Run(ctx); err != nil {
				slog.Error("trade intent consumer stopped", "err", err)
			}
		})
		slog.Info("Kafka enabled", "brokers", cfg.KafkaBrokers)
	}

	// --- Market clock ---
	clk := clock.New(clock.OnChange(func(status model.MarketStatus) {
		metrics.SetMarketOpen(status.Open)
		wsHub.OnMarketStatus(status)
	}))
	metrics.SetMarketOpen(clk.Status().Open)
	spawn(func() { clk.Run(ctx, cfg.StatusInterval) })
	spawn(func() { sess.Run(ctx) })

	// --- Advisor ---
	deps := api.Deps{
		Session:  sess,
		Clock:    clk,
		History:  history.New(st),
		Expenses: expense.NewBook(st),
		Profiles: profile.NewService(st),
	}
	if cfg.GeminiAPIKey != "" {
		gm, err := advisor.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Error("gemini client failed", "err", err)
			os.Exit(1)
		}
		adv, err := advisor.New(gm, advisor.DefaultConfig())
		if err != nil {
			slog.Error("advisor init failed", "err", err)
			os.Exit(1)
		}
		deps.Advisor = adv
		deps.Categorizer = expense.NewAutoCategorizer(adv, cfg.CategorizeQuiet)
		defer deps.Categorizer.Stop()
		slog.Info("advisor enabled", "model", cfg.GeminiModel)
	} else {
		slog.Warn("GEMINI_API_KEY not set, advisor endpoints disabled")
	}
	svc := api.NewService(deps)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)
	r.Use(cors(cfg.CORSOrigin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"sim-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for ticks, trades and market status.
		r.Get("/ws", wsHub.HandleWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			svc.Mount(r)
		})
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("sim-engine listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down sim-engine...")
	sess.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	wg.Wait()
	fmt.Println("sim-engine stopped")
}

// cors allows cross-origin requests from origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+api.UserHeader)
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
