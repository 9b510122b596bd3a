package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/visweshnarni/qptestbackend/config"
	"github.com/visweshnarni/qptestbackend/internal/repository"
	"github.com/visweshnarni/qptestbackend/pkg/cloudinary"
	"github.com/visweshnarni/qptestbackend/pkg/jwt"
	"github.com/visweshnarni/qptestbackend/pkg/mailer"
	"github.com/visweshnarni/qptestbackend/pkg/redis"
	"github.com/visweshnarni/qptestbackend/pkg/voice"
)

// Service aggregates every business service.
type Service struct {
	Auth       AuthService
	Student    StudentService
	Outpass    OutpassService
	Escalation EscalationService
	Dashboard  DashboardService
	Admin      AdminService
	Export     ExportService
}

// NewService wires the service layer. redisClient may be nil when Redis is
// unreachable; the affected features degrade instead of failing startup.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	redisClient *redis.Client,
	mailSender mailer.Sender,
	voiceCaller voice.Caller,
	uploader cloudinary.Uploader,
	location *time.Location,
	logger *zap.Logger,
) *Service {
	resolver := NewTargetResolver(repo, location, logger)
	notifier := NewNotifier(mailSender, voiceCaller, location, logger)

	var dedup DedupStore
	if redisClient != nil {
		dedup = redisClient
	}
	escalation := NewEscalationService(
		repo, notifier, dedup,
		cfg.Outpass.RecheckDelay, cfg.Outpass.HodSweepInterval,
		logger,
	)

	outpass := NewOutpassService(
		repo, resolver, notifier, escalation, uploader,
		location, cfg.Outpass.DayEndCutoff, logger,
	)

	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, redisClient, logger),
		Student:    NewStudentService(repo, cfg.Outpass.DayEndCutoff),
		Outpass:    outpass,
		Escalation: escalation,
		Dashboard:  NewDashboardService(repo, outpass, location, cfg.Outpass.LowAttendanceThreshold, logger),
		Admin:      NewAdminService(repo, location, logger),
		Export:     NewExportService(repo, location, logger),
	}
}
