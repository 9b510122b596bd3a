package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/visweshnarni/qptestbackend/config"
	"github.com/visweshnarni/qptestbackend/internal/api/handler"
	"github.com/visweshnarni/qptestbackend/internal/api/middleware"
	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/pkg/jwt"
	"github.com/visweshnarni/qptestbackend/pkg/redis"
)

// requestBodyLimit leaves room for the 5 MB supporting document plus the
// multipart envelope.
const requestBodyLimit = 8 << 20

// Setup builds the Gin engine with every route wired.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(requestBodyLimit))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/student/login", h.Auth.StudentLogin)
			auth.POST("/employee/login", h.Auth.EmployeeLogin)
		}

		// TwiML scripts (public: fetched by Twilio, not by our clients)
		voiceScripts := v1.Group("/voice")
		{
			voiceScripts.GET("/script", h.Voice.FacultyScript)
			voiceScripts.GET("/hod-summary", h.Voice.HodSummaryScript)
		}

		// authenticated routes
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// student self-service
			students := authorized.Group("/students", middleware.RoleAuth(model.RoleStudent))
			{
				students.GET("/me", h.Student.Profile)
				students.GET("/me/apply-details", h.Student.ApplyDetails)
			}

			// outpass workflow
			outpasses := authorized.Group("/outpasses")
			{
				outpasses.POST("", middleware.RoleAuth(model.RoleStudent), h.Outpass.Apply)
				outpasses.GET("/mine", middleware.RoleAuth(model.RoleStudent), h.Outpass.Mine)
				outpasses.GET("/current", middleware.RoleAuth(model.RoleStudent), h.Outpass.Current)
				outpasses.POST("/:id/cancel", middleware.RoleAuth(model.RoleStudent), h.Outpass.Cancel)

				outpasses.GET("/pending", middleware.RoleAuth(model.RoleFaculty, model.RoleHod), h.Outpass.Pending)
				outpasses.GET("/history", middleware.RoleAuth(model.RoleFaculty, model.RoleHod), h.Outpass.History)
				outpasses.POST("/:id/faculty-decision", middleware.RoleAuth(model.RoleFaculty), h.Outpass.FacultyDecide)
				outpasses.POST("/:id/hod-decision", middleware.RoleAuth(model.RoleHod), h.Outpass.HodDecide)

				outpasses.POST("/:id/verify-exit", middleware.RoleAuth(model.RoleSecurity), h.Outpass.VerifyExit)
				outpasses.POST("/:id/verify-return", middleware.RoleAuth(model.RoleSecurity), h.Outpass.VerifyReturn)

				outpasses.GET("/:id", h.Outpass.Get)
			}

			// approver dashboards
			dashboard := authorized.Group("/dashboard")
			{
				dashboard.GET("/faculty", middleware.RoleAuth(model.RoleFaculty), h.Dashboard.Faculty)
				dashboard.GET("/hod", middleware.RoleAuth(model.RoleHod), h.Dashboard.Hod)
			}

			// exports
			export := authorized.Group("/export", middleware.RoleAuth(model.RoleHod, model.RoleAdmin))
			{
				export.GET("/outpasses", h.Export.DepartmentHistory)
			}

			// provisioning
			admin := authorized.Group("/admin", middleware.RoleAuth(model.RoleAdmin))
			{
				admin.POST("/departments", h.Admin.CreateDepartment)
				admin.GET("/departments", h.Admin.ListDepartments)
				admin.DELETE("/departments/:id", h.Admin.DeleteDepartment)

				admin.POST("/classes", h.Admin.CreateClass)
				admin.GET("/classes", h.Admin.ListClasses)
				admin.PUT("/classes/:id/mentors", h.Admin.SetClassMentors)

				admin.POST("/employees", h.Admin.CreateEmployee)
				admin.GET("/employees", h.Admin.ListEmployees)

				admin.POST("/students", h.Admin.CreateStudent)
				admin.GET("/students", h.Admin.ListStudents)

				admin.POST("/timetable", h.Admin.CreateTimetableSlot)
				admin.POST("/timetable/import", h.Admin.ImportTimetable)
				admin.GET("/timetable/:employee_id", h.Admin.ListTimetable)
			}
		}
	}

	return r
}
