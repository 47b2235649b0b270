package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/acme-fitness/cartservice-go/cartstore"
	"github.com/acme-fitness/cartservice-go/services"
)

const serviceName = "acme-cart"

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
}

func main() {
	ctx := context.Background()
	cfg := loadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	tp, err := initTracerProvider(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracer provider")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("error shutting down tracer provider")
		}
	}()

	store := newStore(cfg)
	if err := store.Initialize(ctx); err != nil {
		// The service cannot run without its backing store.
		log.WithError(err).Fatal("failed to connect to cart store, terminating")
	}

	svc := services.NewCartService(store, log)
	if cfg.SeedData {
		if err := svc.Seed(ctx); err != nil {
			log.WithError(err).Fatal("failed to seed cart data")
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: newRouter(cfg, svc, store),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	log.WithField("addr", srv.Addr).Info("cart service listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server failed")
	}
}

// newStore picks the backing store: Redis when a host is configured, the
// in-process store otherwise (local development without a Redis to hand).
func newStore(cfg Config) cartstore.CartStore {
	if cfg.RedisHost == "" {
		log.Info("REDIS_HOST not set, using in-memory cart store")
		return cartstore.NewLocalCartStore()
	}
	addr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
	log.WithField("addr", addr).Info("using redis cart store")
	return cartstore.NewRedisCartStore(cartstore.RedisOptions{
		Addr:       addr,
		Password:   cfg.RedisPassword,
		TLS:        cfg.RedisTLS,
		Optimistic: cfg.OptimisticWrites,
	}, log)
}

func newRouter(cfg Config, svc *services.CartService, store cartstore.CartStore) *mux.Router {
	s := &cartServer{svc: svc, store: store, log: log}
	auth := newAuthGate(AuthConfig{
		Mode:         cfg.AuthMode,
		AuthURL:      cfg.AuthURL,
		TestUsername: "eric",
		TestPassword: "vmware1!",
	}, log)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(serviceName))
	r.Use(logMiddleware(log))

	r.HandleFunc("/", s.homeHandler).Methods(http.MethodGet)
	r.HandleFunc("/env", s.envHandler).Methods(http.MethodGet)

	c := r.PathPrefix("/cart").Subrouter()
	c.Use(auth.Middleware)
	c.HandleFunc("/items/{userid}", s.getCartItemsHandler).Methods(http.MethodGet)
	c.HandleFunc("/items/total/{userid}", s.cartItemsTotalHandler).Methods(http.MethodGet, http.MethodPost)
	c.HandleFunc("/total/{userid}", s.cartTotalHandler).Methods(http.MethodGet, http.MethodPost)
	c.HandleFunc("/all", s.allCartsHandler).Methods(http.MethodGet)
	c.HandleFunc("/item/add/{userid}", s.addItemHandler).Methods(http.MethodGet, http.MethodPost)
	c.HandleFunc("/modify/{userid}", s.replaceCartHandler).Methods(http.MethodGet, http.MethodPost)
	c.HandleFunc("/item/modify/{userid}", s.modifyItemHandler).Methods(http.MethodGet, http.MethodPost)
	c.HandleFunc("/clear/{userid}", s.clearCartHandler).Methods(http.MethodGet, http.MethodPost)

	return r
}

// initTracerProvider sets up the OTLP trace pipeline. The collector
// endpoint comes from OTEL_EXPORTER_OTLP_ENDPOINT (host:port).
func initTracerProvider(ctx context.Context) (*sdktrace.TracerProvider, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("v1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}
