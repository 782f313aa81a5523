package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/carelink/healthcare-api/internal/api/handler"
	"github.com/carelink/healthcare-api/internal/api/metrics"
	"github.com/carelink/healthcare-api/internal/api/middleware"
	"github.com/carelink/healthcare-api/internal/core/ports"
	"github.com/carelink/healthcare-api/internal/infrastructure/http/handlers"

	_ "github.com/carelink/healthcare-api/docs"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Auth     ports.AuthService
	Verifier ports.TokenVerifier
	Patients ports.PatientService
	Doctors  ports.DoctorService
	Mappings ports.MappingService
	// Checks are pinged by GET /health/ready.
	Checks []handlers.Check
	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Logger(deps.Logger))
	e.Use(metrics.Middleware())

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	patientHandler := handler.NewPatientHandler(deps.Patients)
	doctorHandler := handler.NewDoctorHandler(deps.Doctors)
	mappingHandler := handler.NewMappingHandler(deps.Mappings)
	authMiddleware := middleware.Auth(deps.Verifier)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout, authMiddleware)
	auth.GET("/me", authHandler.Me, authMiddleware)

	// --- Resource routes (bearer token required) ---
	v1 := e.Group("/v1", authMiddleware)

	v1.GET("/patients", patientHandler.List)
	v1.POST("/patients", patientHandler.Create)
	v1.GET("/patients/:id", patientHandler.Get)
	v1.PUT("/patients/:id", patientHandler.Update)
	v1.PATCH("/patients/:id", patientHandler.Patch)
	v1.DELETE("/patients/:id", patientHandler.Delete)

	v1.GET("/doctors", doctorHandler.List)
	v1.POST("/doctors", doctorHandler.Create)
	v1.GET("/doctors/:id", doctorHandler.Get)
	v1.PUT("/doctors/:id", doctorHandler.Update)
	v1.PATCH("/doctors/:id", doctorHandler.Patch)
	v1.DELETE("/doctors/:id", doctorHandler.Delete)

	v1.GET("/mappings", mappingHandler.List)
	v1.POST("/mappings", mappingHandler.Create)
	v1.GET("/mappings/:id", mappingHandler.Get)
	v1.DELETE("/mappings/:id", mappingHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
