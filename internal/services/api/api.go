// Package api mounts the HTTP API: the meta endpoints and the fip module under /v1
package api

import (
	"vdyp/internal/core/coefficients"
	"vdyp/internal/modkit"
	"vdyp/internal/modkit/httpkit"
	"vdyp/internal/modkit/module"
	"vdyp/internal/modkit/swaggerkit"
	"vdyp/internal/platform/config"
	phttp "vdyp/internal/platform/net/http"
	"vdyp/internal/platform/store"

	metamod "vdyp/internal/services/api/meta/module"
	fipmod "vdyp/internal/services/fip/module"
)

// ServiceName names the API in logs and meta endpoints
const ServiceName = "vdyp-api"

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Tables         *coefficients.Tables
	Fip            fipmod.Options
	Stack          httpkit.StackOptions
	EnableProfiler bool
	EnableSwagger  bool
}

// Mount mounts the API onto r and returns the fip module it built
func Mount(r phttp.Router, opt Options) *fipmod.Module {
	deps := modkit.Deps{Cfg: opt.Config, Tables: opt.Tables}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	fip := fipmod.New(deps, opt.Fip)
	mods := []module.Module{
		metamod.New(deps, ServiceName),
		fip,
	}

	if opt.EnableProfiler {
		phttp.MountProfiler(r, "/debug")
	}
	if opt.EnableSwagger {
		swaggerkit.Mount(r, "/docs", "/v1")
	}
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Stack), func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
	return fip
}
