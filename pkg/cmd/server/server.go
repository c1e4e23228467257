package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/cmd/setup"
	"github.com/mpapenbr/racepace/pkg/config"
	"github.com/mpapenbr/racepace/pkg/endpoints/web"
)

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"server-addr",
		"a",
		"localhost:8080",
		"web server listen address")
	cmd.Flags().StringVar(&config.TLSServerAddr,
		"tls-server-addr",
		"",
		"web server listen address (tls)")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"file containing the TLS certificate")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"file containing the TLS key")
	cmd.Flags().StringVar(&config.TraefikCerts,
		"traefik-certs",
		"",
		"traefik acme.json to take the TLS certificate from")
	cmd.Flags().StringVar(&config.TraefikCertDomain,
		"traefik-cert-domain",
		"",
		"domain to lookup within the traefik certs")
	cmd.Flags().StringVar(&config.CacheExpiration,
		"cache-expiration",
		"1h",
		"how long downloaded reports are kept (0 disables the cache)")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (\"stdout\" prints them)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	logger, err := setup.Logger(os.Stderr)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(log.AddToContext(parent, logger),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	appConfig, err := config.Resolve()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Debug("Config:",
		log.String("sourceBaseURL", appConfig.SourceBaseURL),
		log.Duration("fetchTimeout", appConfig.FetchTimeout),
		log.Duration("cacheExpiration", appConfig.CacheExpiration),
		log.String("matcher", appConfig.Matcher),
		log.Int("workers", appConfig.Workers),
		log.String("rosterFile", config.RosterFile),
	)

	if config.ProfilingPort > 0 {
		logger.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				logger.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	if config.EnableTelemetry {
		logger.Info("Enabling telemetry")
		if telemetry, err := config.SetupTelemetry(ctx); err == nil {
			defer telemetry.Shutdown()
		} else {
			logger.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			logger.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	svc, err := setup.AnalysisService(ctx, appConfig)
	if err != nil {
		return err
	}
	handler := otelhttp.NewHandler(
		web.NewServer(svc, web.WithLogger(logger.Named("web"))).Handler(),
		"racepace")

	servers := []*http.Server{{
		Addr:              config.ServerAddr,
		Handler:           h2c.NewHandler(newCORS().Handler(handler), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if config.TLSServerAddr != "" {
		tlsConfig := NewTLSConfigProvider(ctx, TLSOptionsFromConfig())
		if tlsConfig == nil {
			return errors.New("tls server requested but no certificate configured")
		}
		servers = append(servers, &http.Server{
			Addr:              config.TLSServerAddr,
			Handler:           newCORS().Handler(handler),
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}
	setupGoRoutinesDump()

	g, gCtx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("Starting web server",
				log.String("addr", srv.Addr), log.Bool("tls", srv.TLSConfig != nil))
			var err error
			if srv.TLSConfig != nil {
				err = srv.ListenAndServeTLS("", "")
			} else {
				err = srv.ListenAndServe()
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gCtx.Done()
		logger.Debug("Shutting down web servers")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), 10*time.Second)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", log.ErrorField(err))
		return err
	}
	logger.Info("Server terminated")
	return nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func newCORS() *cors.Cors {
	// the json api is meant to be used from other web pages
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			// Allow all origins, which effectively disables CORS.
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Content-Disposition",
			web.RequestIDHeader,
		},
		// Let browsers cache CORS information for longer, which reduces the number
		// of preflight requests.
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
