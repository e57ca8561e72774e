package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/handlers"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/middleware"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	database "github.com/ToiLaHao2/MyFreeMusic-BE/internal/db"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/ingest"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/library"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/storage"
)

type Server struct {
	cfg     *config.Config
	db      *database.Client
	storage *storage.Client
	ingest  *ingest.Service
	repo    *library.SongRepository
	router  *gin.Engine
}

func New(cfg *config.Config, db *database.Client, st *storage.Client, svc *ingest.Service, repo *library.SongRepository) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		db:      db,
		storage: st,
		ingest:  svc,
		repo:    repo,
		router:  gin.Default(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

	// "Authorization" must be allowed so the frontend can send the JWT
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	authHandler := handlers.NewAuthHandler(s.db.DB, s.cfg)
	songHandler := handlers.NewSongHandler(s.db.DB, s.repo, s.ingest, s.storage, s.cfg)
	playlistHandler := handlers.NewPlaylistHandler(s.db.DB)
	favoriteHandler := handlers.NewFavoriteHandler(s.db.DB)
	themeHandler := handlers.NewThemeHandler(s.db.DB)
	catalogHandler := handlers.NewCatalogHandler(s.db.DB)
	statsHandler := handlers.NewStatsHandler(s.db.DB)
	storageHandler := handlers.NewStorageHandler(s.db.DB, s.storage, s.cfg)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "myfreemusic"})
	})

	secret := []byte(s.cfg.Auth.JWTSecret)

	v1 := s.router.Group("/api/v1")
	{
		// ==========================================
		// PUBLIC ROUTES (No Token Required)
		// ==========================================
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.Refresh)
		v1.POST("/auth/logout", authHandler.Logout)

		// ==========================================
		// PROTECTED ROUTES (JWT Token Required)
		// ==========================================
		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(secret))
		{
			protected.GET("/auth/me", authHandler.Me)

			// --- SONGS ---
			protected.GET("/songs", songHandler.GetSongs)
			protected.GET("/songs/:id", songHandler.GetSong)
			protected.GET("/songs/:id/stream/*filepath", songHandler.StreamSong)
			protected.POST("/songs/:id/view", songHandler.RegisterView)
			protected.POST("/upload/analyze", songHandler.PreAnalyzeFile)
			protected.POST("/songs/upload", songHandler.UploadSong)
			protected.POST("/songs/youtube", songHandler.AddFromYoutube)
			protected.PATCH("/songs/:id", middleware.RequireRole("admin"), songHandler.UpdateSong)
			protected.DELETE("/songs/:id", middleware.RequireRole("admin"), songHandler.DeleteSong)

			// --- FAVORITES ---
			protected.POST("/songs/:id/favorite", favoriteHandler.AddFavorite)
			protected.DELETE("/songs/:id/favorite", favoriteHandler.RemoveFavorite)
			protected.GET("/me/favorites", favoriteHandler.GetFavorites)

			// --- PLAYLISTS ---
			protected.GET("/playlists", playlistHandler.GetPlaylists)
			protected.GET("/playlists/:id", playlistHandler.GetPlaylist)
			protected.POST("/playlists", playlistHandler.CreatePlaylist)
			protected.PUT("/playlists/:id", playlistHandler.UpdatePlaylist)
			protected.PUT("/playlists/:id/songs", playlistHandler.UpdatePlaylistSongs)
			protected.DELETE("/playlists/:id", playlistHandler.DeletePlaylist)
			protected.POST("/playlists/:id/share", playlistHandler.SharePlaylist)
			protected.DELETE("/playlists/:id/share/:userId", playlistHandler.UnsharePlaylist)

			// --- THEME ---
			protected.GET("/me/theme", themeHandler.GetTheme)
			protected.PUT("/me/theme", themeHandler.UpdateTheme)
			protected.DELETE("/me/theme", themeHandler.ResetTheme)

			// --- CATALOG ---
			protected.GET("/genres", catalogHandler.GetGenres)
			protected.GET("/artists", catalogHandler.GetArtists)
			protected.POST("/genres", middleware.RequireRole("admin"), catalogHandler.CreateGenre)
			protected.POST("/artists", middleware.RequireRole("admin"), catalogHandler.CreateArtist)

			// --- ADMIN DASHBOARD ---
			protected.GET("/stats", middleware.RequireRole("admin"), statsHandler.GetStats)
			protected.GET("/storage/stats", middleware.RequireRole("admin"), storageHandler.GetStorageStats)
		}
	}
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
