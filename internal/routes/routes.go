package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/events"
	"github.com/BruksfildServices01/barber-booking/internal/feed"
	"github.com/BruksfildServices01/barber-booking/internal/handlers"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/realtime"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/breaks"
)

// Deps are the long-lived singletons main owns and closes.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Log      *zap.Logger
	Repo     domain.Repository
	Feed     *feed.Hub
	Audit    *audit.Dispatcher
	Events   events.Publisher
	Breaks   *breaks.Coordinator
	Watcher  *breaks.Watcher
	Surfaces *realtime.Hub
}

func RegisterRoutes(r *gin.Engine, d Deps) {

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.Recover(d.Log))
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "surfaces": d.Surfaces.Count()})
	})

	// ======================================================
	// 🧠 USE CASES — APPOINTMENTS
	// ======================================================
	policy := domain.Policy{AllowOverrun: d.Config.Booking.AllowOverrun}
	ids := identity.ContextProvider{}

	resolveSlotsUC := ucAppointment.NewResolveSlots(d.Repo, policy)
	listServicesUC := ucAppointment.NewListServices(d.Repo)
	bookUC := ucAppointment.NewBook(d.Repo, ids, policy, d.Audit, d.Events)
	listDayUC := ucAppointment.NewListDay(d.Repo)
	listMonthUC := ucAppointment.NewListMonth(d.Repo)
	setStatusUC := ucAppointment.NewSetStatus(d.Repo, ids, d.Audit, d.Events)
	tracker := ucAppointment.NewTracker(listDayUC, d.Feed, d.Config.Schedule.Coalesce, d.Log)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(d.DB, d.Config, d.Log)
	meHandler := handlers.NewMeHandler(d.DB)
	barbershopHandler := handlers.NewBarbershopHandler(d.DB)
	serviceHandler := handlers.NewServiceHandler(d.DB)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	publicHandler := handlers.NewPublicHandler(listServicesUC, resolveSlotsUC)
	appointmentHandler := handlers.NewAppointmentHandler(bookUC, listDayUC, listMonthUC, setStatusUC)
	breakHandler := handlers.NewBreakHandler(d.Breaks)
	wsHandler := handlers.NewWSHandler(d.Surfaces, realtime.Services{
		Resolve: resolveSlotsUC,
		Tracker: tracker,
		Breaks:  d.Breaks,
		Watcher: d.Watcher,
	})

	auth := middleware.AuthMiddleware(d.Config)
	staff := middleware.RequireRole(models.RoleBarber, models.RoleOwner)
	owner := middleware.RequireRole(models.RoleOwner)

	// ======================================================
	// 🔌 SURFACES (WEBSOCKET)
	// ======================================================
	r.GET("/ws", auth, wsHandler.Serve)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🌐 PUBLIC
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/services", publicHandler.ListServices)
			publicAPI.GET("/availability", publicHandler.Availability)
		}

		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// 🔐 PRIVATE
		// ------------------------------
		secured := api.Group("/")
		secured.Use(auth)
		{
			secured.GET("/me", meHandler.GetMe)

			// booking is open to any signed-in user
			secured.POST("/appointments", appointmentHandler.Book)

			me := secured.Group("/me")
			me.Use(staff)
			{
				me.GET("/schedule", appointmentHandler.Day)
				me.GET("/schedule/month", appointmentHandler.Month)
				me.PATCH("/appointments/:id/status", appointmentHandler.UpdateStatus)

				me.GET("/services", serviceHandler.List)
				me.POST("/services", serviceHandler.Create)
				me.PATCH("/services/:id", serviceHandler.Update)

				me.POST("/breaks", breakHandler.Request)
				me.DELETE("/breaks", breakHandler.Cancel)
				me.POST("/breaks/end", breakHandler.End)
				me.GET("/breaks/status", breakHandler.Status)

				me.GET("/barbershop", owner, barbershopHandler.GetMeBarbershop)
				me.PATCH("/barbershop", owner, barbershopHandler.UpdateMeBarbershop)
				me.GET("/audit-logs", owner, auditLogsHandler.List)
			}

			// ------------------------------
			// 🧾 POS (break approvals)
			// ------------------------------
			pos := secured.Group("/pos")
			pos.Use(owner)
			{
				pos.GET("/breaks", breakHandler.List)
				pos.POST("/breaks/:id/approve", breakHandler.Approve)
				pos.POST("/breaks/:id/deny", breakHandler.Deny)
				pos.POST("/breaks/:id/ack", breakHandler.Acknowledge)
				pos.PUT("/barbers/:id/busy", breakHandler.SetBusy)
			}
		}
	}
}
