package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"triptych/backend/internal/adapter"
	"triptych/backend/internal/comfy"
	"triptych/backend/internal/history"
	"triptych/backend/internal/prompt"
	"triptych/backend/internal/sampler"
	"triptych/backend/pkg/config"
	"triptych/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting sampling toolkit server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Wire the sampling core. The adapter probes the ComfyUI backend once;
	// an unreachable backend degrades to the deterministic fallback path.
	comfyClient := comfy.NewClient(cfg.ComfyUIURL, cfg.ComfyUITimeout, cfg.ComfyUIPollTimeout)
	backendAdapter := sampler.NewAdapter(ctx, comfyClient)

	prefs := sampler.NewPreferenceStore(sampler.PreferenceTuning{
		ConfidenceFloor:       cfg.BiasConfidenceFloor,
		Cap:                   cfg.BiasCap,
		OverrideThreshold:     cfg.OverrideThreshold,
		OverrideMinSelections: cfg.OverrideMinSelections,
	})
	orch := sampler.NewOrchestrator(backendAdapter, prefs, cfg.StepCeiling, cfg.CFGCeiling)

	// Optional Neo4j run history
	if cfg.HistoryEnabled() {
		driver, err := neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			log.Fatal("Failed to create Neo4j driver", zap.Error(err))
		}
		defer driver.Close(context.Background())

		if err := driver.VerifyConnectivity(ctx); err != nil {
			log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
		}

		repo := history.NewRepository(driver)
		orch.SetRecorder(repo)
		log.Info("Run history enabled", zap.String("uri", cfg.Neo4jURI))
	} else {
		log.Info("Run history disabled (NEO4J_URI unset)")
	}

	cached := sampler.NewCachingOrchestrator(orch, cfg.CacheTTL)

	// Prompt utilities
	llm := adapter.NewLLMAdapter(cfg.LiteLLMURL, cfg.OpenRouterAPIKey, cfg.ModelID)
	enhancer := prompt.NewEnhancer(llm)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "ok",
			"backend_available": backendAdapter.Available(),
		})
	})

	// API routes
	api := router.Group("/api")
	{
		// Generate three strategy variants
		api.POST("/sample", func(c *gin.Context) {
			var req sampler.Request
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			// Validation problems come back inside the result, so the
			// response shape is always the same
			result := cached.GenerateVariants(c.Request.Context(), req)
			c.JSON(http.StatusOK, result)
		})

		// Pick a winner among three variants
		api.POST("/select", func(c *gin.Context) {
			var req struct {
				Variants [3]sampler.Variant         `json:"variants" binding:"required"`
				Chosen   sampler.StrategyID         `json:"chosen" binding:"required"`
				Ratings  map[sampler.StrategyID]int `json:"ratings"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			selection := sampler.SelectVariant(req.Variants, req.Chosen, req.Ratings)
			c.JSON(http.StatusOK, selection)
		})

		// Node registration metadata
		api.GET("/descriptors", func(c *gin.Context) {
			c.JSON(http.StatusOK, sampler.Descriptors())
		})

		// Current learning state
		api.GET("/preferences", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"records":          orch.Preferences().Snapshot(),
				"total_selections": orch.Preferences().TotalSelections(),
			})
		})

		// Prompt utilities
		promptAPI := api.Group("/prompt")
		{
			promptAPI.POST("/enhance", func(c *gin.Context) {
				var req struct {
					Text string `json:"text" binding:"required"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}

				enhanced, err := enhancer.Enhance(c.Request.Context(), req.Text)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, gin.H{"original": req.Text, "enhanced": enhanced})
			})

			promptAPI.POST("/combine", func(c *gin.Context) {
				var req struct {
					Fragments []string `json:"fragments" binding:"required"`
					Style     string   `json:"style"`
					Negative  string   `json:"negative"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}

				combined := prompt.Combine(req.Fragments...)
				negative := prompt.Clean(req.Negative)
				if req.Style != "" {
					combined, negative = prompt.ApplyStyle(req.Style, combined, negative)
				}
				c.JSON(http.StatusOK, gin.H{"positive": combined, "negative": negative})
			})

			promptAPI.POST("/analyze", func(c *gin.Context) {
				var req struct {
					Text string `json:"text" binding:"required"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, prompt.Analyze(req.Text))
			})

			promptAPI.GET("/styles", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"styles": prompt.StyleNames()})
			})
		}
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
