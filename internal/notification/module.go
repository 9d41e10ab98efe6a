package notification

import (
	"context"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/inbound"
	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/outbound/db"
	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/outbound/push"
	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/usecase"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/clock"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/config"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goroutine"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/instrument"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/messaging"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/router"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/runlock"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/uid"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool
	Redis      *redis.Client
	Messaging  messaging.Messaging
	Config     config.Config
	Instrument instrument.Instrumentation
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Router     *router.Router
}

func New(dep Dependency) error {
	dbNotif := db.NewDB(dep.DBConn, dep.Instrument)
	pusher := push.New(dep.Config, dep.Instrument)
	locker := runlock.New(dep.Redis)

	uc := usecase.NewEngine(usecase.Dependency{
		RepoDB:     dbNotif,
		Pusher:     pusher,
		Locker:     locker,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
