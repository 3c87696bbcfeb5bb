package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/contactsection/app"
	"github.com/dalemusser/contactsection/config"
	"github.com/dalemusser/contactsection/httputil"
	"github.com/dalemusser/contactsection/internal/app/features/contact"
	"github.com/dalemusser/contactsection/internal/app/resources"
	"github.com/dalemusser/contactsection/metrics"
	"github.com/dalemusser/contactsection/middleware"
	"github.com/dalemusser/contactsection/pantry/health"
	"github.com/dalemusser/contactsection/pantry/version"
	"github.com/dalemusser/contactsection/router"
	"github.com/dalemusser/contactsection/templates"
	"go.uber.org/zap"
)

// LoadConfig loads the core config plus the app keys and validates both.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, vals, err := config.Load(logger, appKeys...)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg := appConfigFrom(vals)
	if err := appCfg.Validate(); err != nil {
		return nil, AppConfig{}, err
	}
	if coreCfg.Env == "prod" && appCfg.Transport == TransportLog {
		logger.Warn("running in prod with the log transport; messages will not be delivered")
	}
	return coreCfg, appCfg, nil
}

// Connect builds the email transport.
func Connect(ctx context.Context, _ *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	return newSender(ctx, appCfg, logger)
}

// Verify confirms the transports that render locally know the template the
// routing names.
func Verify(_ context.Context, _ *config.CoreConfig, appCfg AppConfig, deps Deps, _ *zap.Logger) error {
	if deps.Sender == nil {
		return fmt.Errorf("no email sender built for transport %q", deps.Transport)
	}
	if deps.Store != nil && !deps.Store.Has(appCfg.Routing.TemplateID) {
		return fmt.Errorf("email template %q not registered (have %v)", appCfg.Routing.TemplateID, deps.Store.List())
	}
	return nil
}

// BuildHandler assembles the router: operational endpoints plus the contact
// feature, with CORS applied to the JSON API only.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	httputil.SetLogger(logger)

	engine, err := templates.Boot(logger, resources.LayoutSet(), contact.TemplateSet())
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	r := router.New(coreCfg, logger)

	health.Mount(r, health.Options{
		Info:   map[string]string{"transport": deps.Transport, "version": version.Get().Version},
		Checks: deps.Checks,
	}, logger)
	version.Mount(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	h := contact.NewHandler(deps.Sender, appCfg.Routing, engine, logger)
	contact.Routes(r, h, middleware.CORSFromConfig(coreCfg))

	return r, nil
}

// Hooks wires the service into app.Run.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:         "contactsection",
	LoadConfig:   LoadConfig,
	Connect:      Connect,
	Verify:       Verify,
	BuildHandler: BuildHandler,
}
