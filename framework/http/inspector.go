package http

import (
	"net/http"
	"sort"

	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/routing"
	"github.com/km-arc/go-ioc/framework/stats"
)

// Inspector serves a read-only view of a built container:
//
//	GET /container/health              booted flag and binding count
//	GET /container/bindings            every binding; ?lifetime= filters
//	GET /container/bindings/{name}     one binding by name or by type string
//	GET /container/stats               creation counters
//
// When key is non-empty every route but health requires
// Authorization: Bearer <key>.
type Inspector struct {
	c     *container.Container
	stats *stats.Recorder
	key   string
}

// NewInspector returns an Inspector over c. rec may be nil.
func NewInspector(c *container.Container, rec *stats.Recorder, key string) *Inspector {
	return &Inspector{c: c, stats: rec, key: key}
}

// Routes mounts the inspector on r.
func (in *Inspector) Routes(r *routing.Router) {
	r.Prefix("/container", func(cr *routing.Router) {
		cr.Get("/health", in.Health)
		cr.Group(func(g *routing.Router) {
			g.Middleware(in.guard)
			g.Get("/bindings", in.Bindings)
			g.Get("/bindings/{name}", in.Binding)
			g.Get("/stats", in.Stats)
		})
	})
}

func (in *Inspector) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if in.key != "" && NewRequest(r).BearerToken() != in.key {
			NewResponse(w).Unauthorized()
			return
		}
		next.ServeHTTP(w, r)
	})
}

type healthBody struct {
	Booted    bool `json:"booted"`
	Providers int  `json:"providers"`
}

// Health reports whether the container has booted.
func (in *Inspector) Health(w http.ResponseWriter, _ *http.Request) {
	NewResponse(w).Success(healthBody{Booted: in.c.Booted(), Providers: len(in.c.Providers())})
}

// Bindings lists every provider in registration order.
func (in *Inspector) Bindings(w http.ResponseWriter, r *http.Request) {
	lifetime := NewRequest(r).Query("lifetime")

	infos := make([]container.ProviderInfo, 0)
	for _, p := range in.c.Providers() {
		if lifetime != "" && p.Lifetime().String() != lifetime {
			continue
		}
		infos = append(infos, container.Describe(p))
	}
	NewResponse(w).Success(infos)
}

// Binding describes one provider. The path segment is tried as a binding
// name first, then as the exposed type of an unnamed binding.
func (in *Inspector) Binding(w http.ResponseWriter, r *http.Request) {
	key := NewRequest(r).RouteParam("name")

	if p, ok := in.c.TryGetProviderNamed(key); ok {
		NewResponse(w).Success(container.Describe(p))
		return
	}
	for _, p := range in.c.Providers() {
		if p.Name() == "" && p.ExposedType().String() == key {
			NewResponse(w).Success(container.Describe(p))
			return
		}
	}
	NewResponse(w).NotFound("No binding " + key + ".")
}

type statsBody struct {
	Counters map[string]int64 `json:"counters"`
	Bindings []string         `json:"bindings"`
}

// Stats reports the recorder's counters and the bindings it has seen.
func (in *Inspector) Stats(w http.ResponseWriter, _ *http.Request) {
	body := statsBody{Counters: map[string]int64{}, Bindings: []string{}}
	if in.stats != nil {
		body.Counters = in.stats.Snapshot()
		for name := range in.stats.Bindings() {
			body.Bindings = append(body.Bindings, name)
		}
		sort.Strings(body.Bindings)
	}
	NewResponse(w).Success(body)
}
