package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lookuply-search-api/internal/api"
	"lookuply-search-api/internal/metrics"
	"lookuply-search-api/internal/service"
	"lookuply-search-api/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCMD() *cobra.Command {
	var host string
	var port int
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			m := metrics.New()

			// A nil *ResultCache must not reach the interface.
			var store service.ResultStore
			if a.cfg.Cache.Enabled {
				store = storage.NewResultCache(a.cfg.CacheTTL(), a.cfg.CacheCleanupInterval())
			}

			svc := service.New(a.backend, a.ollama(), store, m, a.logger, service.Options{
				DefaultLimit:      a.cfg.Search.DefaultLimit,
				MaxLimit:          a.cfg.Search.MaxLimit,
				ChatLimit:         service.DefaultOptions().ChatLimit,
				BroadFetchLimit:   a.cfg.Search.BroadFetchLimit,
				MinRelevanceScore: a.cfg.Search.MinRelevanceScore,
			})

			server := api.NewServer(svc, a.backend, m, a.logger, api.Options{
				Service:      a.cfg.App.Name,
				Version:      a.cfg.App.Version,
				CORSOrigins:  a.cfg.Server.CORSOrigins,
				ReadTimeout:  a.cfg.ReadTimeout(),
				WriteTimeout: a.cfg.WriteTimeout(),
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting lookuply",
				zap.String("environment", a.cfg.App.Environment),
				zap.String("search_backend", a.cfg.Search.Backend),
				zap.String("model", a.cfg.Services.Ollama.Model),
				zap.Bool("result_cache", a.cfg.Cache.Enabled),
			)
			return server.Run(ctx, a.cfg.Addr())
		},
	}
	serve.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	serve.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")

	return serve
}
