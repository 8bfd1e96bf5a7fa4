// @title       vdyp API
// @version     0.1.0
// @description FIP start stand reconciliation: process single polygons and read stored runs
// @BasePath    /v1

//go:generate swag init --v3.1 --instanceName vdyp -g cmd/vdyp-api/main.go -d ../.. -o ../../internal/services/api/docs

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vdyp/internal/modkit/httpkit"
	"vdyp/internal/modkit/repokit"
	"vdyp/internal/platform/config"
	"vdyp/internal/platform/logger"
	phttp "vdyp/internal/platform/net/http"
	"vdyp/internal/platform/store"

	"vdyp/internal/services/api"
	fipmod "vdyp/internal/services/fip/module"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("API_")
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fipOpts := fipmod.FromConfig(root)
	tables, err := fipOpts.LoadTables()
	if err != nil {
		l.Fatal().Err(err).Msg("load coefficients")
	}

	// result stores are optional; without them the runs endpoint answers 503
	st, err := store.Open(ctx, store.FromConfig(root, api.ServiceName), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if st.Enabled() {
		repokit.MustGuard(ctx, st)
	}

	srv := phttp.NewServer(apiCfg)
	fip := api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Tables:         tables,
		Fip:            fipOpts,
		Stack:          httpkit.StackFromConfig(apiCfg),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
	})

	if apiCfg.MayBool("MIGRATE", false) {
		if err := fip.EnsureSchema(ctx); err != nil {
			l.Fatal().Err(err).Msg("create result tables")
		}
	}

	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("http server stopped")
	}
}
