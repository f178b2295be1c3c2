package stubserver

import (
	"fmt"
	"net/http"
	"time"

	"sportsbook/internal/logger"
	"sportsbook/internal/metrics"
	"sportsbook/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Config стаб-сервера
type Config struct {
	Port       string
	GinMode    string
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	Seed       bool
}

// Server - стаб удаленного backend для локальной разработки и тестов
type Server struct {
	router    *gin.Engine
	config    Config
	store     *Store
	tokens    *Tokens
	passwords Passwords
}

// NewServer создает сервер и настраивает роуты
func NewServer(cfg Config) (*Server, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "stub-secret"
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	s := &Server{
		router:    router,
		config:    cfg,
		store:     NewStore(),
		tokens:    NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		passwords: NewPasswords(cfg.BcryptCost),
	}

	if cfg.Seed {
		if err := s.store.Seed(s.passwords.Hash); err != nil {
			return nil, fmt.Errorf("failed to seed store: %w", err)
		}
		logger.Get().Info("Stub store seeded", "users", len(s.store.Users()), "centers", len(s.store.Centers()))
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	h := &handlers{store: s.store, tokens: s.tokens, passwords: s.passwords}
	token := middleware.MobileToken(s.tokens)
	cookie := middleware.Session(s.tokens)

	api := s.router.Group("/api")
	{
		api.POST("/login", h.Login)

		sports := api.Group("/sports")
		{
			sports.GET("", h.ListSports)
			sports.POST("", token, h.requireAdmin, h.CreateSport)
			sports.DELETE("/:id", token, h.requireAdmin, h.DeleteSport)
		}

		fields := api.Group("/sportfields")
		{
			fields.GET("", h.ListFields)
			fields.POST("/getBySportsCenter", h.FieldsByCenter)
			fields.POST("/post", token, h.requireAdmin, h.CreateField)
			fields.DELETE("/:id", token, h.requireAdmin, h.DeleteField)
		}

		centers := api.Group("/sportscenters")
		{
			centers.GET("", h.ListCenters)
			centers.POST("/getSportsCenter", h.GetCenter)
			centers.POST("/getBySport", h.CentersBySport)
			centers.POST("/getByUserId", h.CentersByUser)
			centers.POST("", token, h.requireAdmin, h.CreateCenter)
			centers.PUT("/:id", token, h.requireAdmin, h.UpdateCenter)
			centers.DELETE("/:id", token, h.requireAdmin, h.DeleteCenter)
		}

		reservations := api.Group("/reservations")
		{
			reservations.GET("", h.ListReservations)
			reservations.POST("", token, h.CreateReservation)
		}

		contacts := api.Group("/contacts")
		{
			contacts.POST("", token, h.AddContact)
			contacts.DELETE("/delete", token, h.RemoveContact)
		}

		users := api.Group("/users")
		{
			users.GET("", h.ListUsers)
			users.POST("", h.Register)
			users.DELETE("/:id", token, h.DeleteUser)
			users.GET("/getUser", cookie, h.GetUser)
			users.POST("/updateUser", token, h.UpdateUser)
			users.POST("/getReservations", h.ReservationsByUser)
			users.POST("/getContacts", h.ContactsByUser)
			users.POST("/searchContacts", h.SearchContacts)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "sportsbook-stub",
	})
}


// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Store exposes the in-memory data, for tests.
func (s *Server) Store() *Store {
	return s.store
}
