package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/leavend/campaign-studio/internal/http/handlers"
	"github.com/leavend/campaign-studio/internal/middleware"
)

// Options configures the middleware stack.
type Options struct {
	Logger          zerolog.Logger
	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	// StaticDir is served under StaticPrefix when both are set.
	StaticDir    string
	StaticPrefix string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	if opts.StaticDir != "" && opts.StaticPrefix != "" {
		prefix := "/" + strings.Trim(opts.StaticPrefix, "/")
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.StaticDir)))
		r.Get(prefix+"/*", fs.ServeHTTP)
	}

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Use(middleware.I18N(opts.DefaultLocale, opts.CountryLookup))
		if opts.JWTSecret != "" {
			r.Use(middleware.AuthJWT(opts.JWTSecret))
		}

		r.Post("/", app.CreateCampaign)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GetCampaign)
			r.Patch("/brief", app.UpdateBrief)

			r.Put("/strategies", app.ReplaceStrategies)
			r.Post("/strategies/suggest", app.SuggestStrategies)
			r.Patch("/strategies/{sid}", app.RefineStrategy)
			r.Post("/strategies/{sid}/select", app.SelectStrategy)

			r.Post("/stage/advance", app.AdvanceStage)
			r.Post("/stage/previous", app.PreviousStage)
			r.Put("/stage", app.GoToStage)

			r.Post("/jobs", app.CreateJobs)

			r.Post("/assets/{aid}/approve", app.ApproveAsset)
			r.Put("/assets/{aid}/favorite", app.FavoriteAsset)
			r.Put("/assets/{aid}/review", app.ReviewAsset)
			r.Post("/assets/{aid}/captions/{cid}/select", app.SelectCaption)
			r.Post("/captions", app.AddCaption)

			r.Post("/exports", app.ExportCampaign)
			r.Post("/save", app.SaveCampaign)
			r.Post("/load", app.LoadCampaign)
		})
	})

	return r
}
