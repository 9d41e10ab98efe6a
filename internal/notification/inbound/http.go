package inbound

import (
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/notification/triggers", end.ListTriggers)
	r.GET("/api/v1/notification/triggers/:key", end.GetTrigger)
	r.PATCH("/api/v1/notification/triggers/:key", end.UpdateTrigger)
	r.POST("/api/v1/notification/triggers/:key/run", end.RunTrigger)

	r.POST("/api/v1/notification/campaigns/:id/execute", end.ExecuteCampaign)
}
