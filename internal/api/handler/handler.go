package handler

import "github.com/visweshnarni/qptestbackend/internal/service"

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth      *AuthHandler
	Student   *StudentHandler
	Outpass   *OutpassHandler
	Dashboard *DashboardHandler
	Admin     *AdminHandler
	Export    *ExportHandler
	Voice     *VoiceHandler
}

// NewHandler creates the handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Student:   NewStudentHandler(svc.Student),
		Outpass:   NewOutpassHandler(svc.Outpass),
		Dashboard: NewDashboardHandler(svc.Dashboard),
		Admin:     NewAdminHandler(svc.Admin),
		Export:    NewExportHandler(svc.Export),
		Voice:     NewVoiceHandler(),
	}
}
