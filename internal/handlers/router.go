package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/auth"
	"github.com/example/face-attendance/internal/config"
	"github.com/example/face-attendance/internal/observability"
	"github.com/example/face-attendance/internal/repository"
)

const ServiceName = "face-attendance"

type RouterConfig struct {
	Server     config.ServerConfig
	CookieName string
	Version    string

	Tokens  *auth.TokenManager
	Revoker auth.Revoker

	Faces     FaceService
	Auth      AuthService
	Employees EmployeeService
	Readiness []ReadinessCheck

	Logger *zap.Logger
}

var managerRoles = []string{string(repository.RoleAdmin), string(repository.RoleHR)}

// NewRouter wires the HTTP handlers to a Gin engine. Every route runs behind the soft
// authentication middleware; access rules are applied per route with guards.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes(cfg.Server)
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))
	r.Use(auth.Derive(cfg.Tokens, cfg.Revoker, cfg.CookieName, logger))

	systemH := NewSystemHandler(ServiceName, cfg.Version, cfg.Readiness, logger)
	r.GET("/", systemH.Root)
	r.GET("/health", systemH.Health)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	authH := NewAuthHandler(cfg.Auth, cfg.CookieName, cfg.Server.Production(), logger)
	v1.POST("/auth/login", authH.Login)
	v1.POST("/auth/logout", authH.Logout)

	employeeH := NewEmployeeHandler(cfg.Employees, logger)
	v1.POST("/employees", auth.RequireRole(managerRoles...), employeeH.Create)

	faceH := NewFaceHandler(cfg.Faces, cfg.Server.MaxUploadBytes, logger)
	v1.POST("/faces/register", auth.RequireAuthenticated(), faceH.Register)
	v1.POST("/users/:userId/face", auth.RequireOwnerOrRole("userId", managerRoles...), faceH.RegisterForUser)
	v1.POST("/attendances/check-in", auth.RequireAuthenticated(), faceH.CheckIn)
	v1.GET("/attendances/check-ins/:id", auth.RequireAuthenticated(), faceH.GetCheckIn)

	return r
}

func maxUploadBytes(s config.ServerConfig) int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return MaxUploadSize
}

// corsConfig allows credentials for the configured origins. A "*" entry reflects any
// origin, since browsers refuse a literal wildcard together with credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", observability.RequestIDHeader},
		ExposeHeaders:    []string{observability.RequestIDHeader},
		AllowCredentials: true,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
