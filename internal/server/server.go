package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wardline/handover/internal/config"
	"github.com/wardline/handover/internal/core"
	"github.com/wardline/handover/internal/core/model"
	"github.com/wardline/handover/internal/llm"
	"github.com/wardline/handover/internal/store"
)

type Server struct {
	Pipeline *core.Pipeline
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}

	// Env vars win over file config.
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("RECORDS_DB"); v != "" {
		cfg.Stores.RecordsPath = v
	}
	if v := os.Getenv("RULES_DB"); v != "" {
		cfg.Stores.RulesPath = v
	}

	records, err := store.NewSQLiteRecordStore(cfg.Stores.RecordsPath, cfg.Stores.RecordsTable)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	policies, err := store.NewSQLitePolicyStore(cfg.Stores.RulesPath, cfg.Stores.RulesTable)
	if err != nil {
		log.Fatalf("Failed to open policy store: %v", err)
	}

	gen, err := llm.NewGenerator(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	pipeline := core.NewPipeline(records, policies, gen, cfg.Prompts.SBAR,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)

	return &Server{Pipeline: pipeline}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.Health)
	r.GET("/reports/:patient_id", s.GetReport)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReport runs the full handover pipeline for one patient. Degraded
// runs still return 200 with a well-formed Report; only a summarization
// generation failure surfaces as an error status.
func (s *Server) GetReport(c *gin.Context) {
	patientID := c.Param("patient_id")

	report, err := s.Pipeline.Run(c.Request.Context(), patientID)
	if err != nil {
		if errors.Is(err, model.ErrGenerationFailure) {
			c.JSON(http.StatusBadGateway, gin.H{"status": "failed", "reason": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failed", "reason": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
