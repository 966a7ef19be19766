package main

import (
	"net/http"
	"os"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/walkupsongs/WalkupTracker/internal/db"
	"github.com/walkupsongs/WalkupTracker/internal/spotify"
)

// The read side of the walk-up song tracker: browse current songs and build
// a Spotify playlist from a selection. Writes stay with the scraper.
func main() {
	var logger *zap.Logger
	var err error

	if os.Getenv("DEBUG") == "true" {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		err = godotenv.Load("../../.env")
		if err != nil {
			logger.Warn("Warning: .env file not found. Using system environment variables.")
		}
	} else {
		logger, err = zap.NewProduction()
		if err != nil {
			panic(err)
		}
	}
	defer logger.Sync()

	spotify.InitializeLogger(logger)
	db.InitializeLogger(logger)

	router := gin.New()

	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "MLB Walkup Songs API",
			"version": "1.0.0",
			"status":  "healthy",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/api/v1/songs/current", currentSongsHandler)
	router.GET("/api/v1/teams", teamsHandler)
	router.POST("/api/v1/playlists", createPlaylistHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
		logger.Info("Defaulting to port", zap.String("port", port))
	}

	logger.Info("Walkup songs API starting", zap.String("port", port))
	err = router.Run(":" + port)
	if err != nil {
		logger.Fatal("Failed to run walkup songs API", zap.Error(err))
	}
}

// currentSongsHandler returns rows with is_current = TRUE, optionally
// filtered by team and by a first_seen/last_updated date window.
func currentSongsHandler(c *gin.Context) {
	team := c.Query("team")

	since, err := parseDateParam(c.Query("since"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since date, expected YYYY-MM-DD"})
		return
	}
	until, err := parseDateParam(c.Query("until"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid until date, expected YYYY-MM-DD"})
		return
	}

	songs, err := db.GetCurrentSongsFiltered(c.Request.Context(), team, since, until)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error querying songs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(songs),
		"songs": songs,
	})
}

func teamsHandler(c *gin.Context) {
	teams, err := db.GetTeams(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error querying teams"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// CreatePlaylistRequest selects stored songs for a new Spotify playlist. The
// caller supplies a user token with playlist scope; this service never holds
// user credentials.
type CreatePlaylistRequest struct {
	AccessToken string   `json:"access_token" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Public      bool     `json:"public"`
	TrackURIs   []string `json:"track_uris" binding:"required"`
}

func createPlaylistHandler(c *gin.Context) {
	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := spotify.GetUser(req.AccessToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not resolve user from token"})
		return
	}

	playlist, err := spotify.CreatePlaylist(req.AccessToken, user.Id, req.Name, req.Description, req.Public, req.TrackURIs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating playlist"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"playlist_id": playlist.Id,
		"tracks":      len(req.TrackURIs),
	})
}

func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
