package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mfi-alm/internal/api/models"
	"mfi-alm/internal/config"
	"mfi-alm/internal/logging"
)

// ScenarioHandler serves the preset stress scenarios
type ScenarioHandler struct {
	path   string
	logger *zap.Logger
}

// NewScenarioHandler reads presets from path, or SCENARIOS_FILE, or
// ./examples/scenarios.yaml.
func NewScenarioHandler(path string, logger *zap.Logger) *ScenarioHandler {
	if path == "" {
		path = os.Getenv("SCENARIOS_FILE")
	}
	if path == "" {
		path = filepath.Join("examples", "scenarios.yaml")
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &ScenarioHandler{path: path, logger: logging.OrNop(logger)}
}

// ListScenarios handles GET /api/v1/scenarios. A missing or unreadable
// presets file yields an empty list.
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	scenarios, err := config.LoadScenariosFile(h.path)
	if err != nil {
		h.logger.Warn("scenario presets unavailable", zap.String("path", h.path), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"scenarios": []models.Scenario{}})
		return
	}
	out := make([]models.Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		sc := scenarioOrDefault(models.Scenario{Name: s.Name, YTMFactor: s.YTMFactor, MortalityFactor: s.MortalityFactor})
		out = append(out, models.Scenario{Name: sc.Name, YTMFactor: sc.YTMFactor, MortalityFactor: sc.MortalityFactor})
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": out})
}
