package app

import (
	"context"
	"net/http"

	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/clock"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/config"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goroutine"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/instrument"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/jwt"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/messaging"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/router"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/uid"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
