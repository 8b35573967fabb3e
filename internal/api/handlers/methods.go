package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mfi-alm/internal/engine"
)

// MethodInfo describes one selectable solver option value
type MethodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default,omitempty"`
}

// ListMethods handles GET /api/v1/methods
func ListMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"projection_methods": []MethodInfo{
			{
				Name:        string(engine.MethodVectorized),
				Description: "Closed-form projection from cumulative growth factors over precomputed yield and benefit vectors.",
				Default:     true,
			},
			{
				Name:        string(engine.MethodLoop),
				Description: "Year-by-year projection that ages both portfolios after each year. Reference semantics.",
			},
		},
		"yield_bases": []MethodInfo{
			{
				Name:        string(engine.YieldBasisYTM),
				Description: "Credit the portfolio's average yield to maturity every year.",
				Default:     true,
			},
			{
				Name:        string(engine.YieldBasisPricePath),
				Description: "Credit the year-over-year change of the projected average price path.",
			},
		},
		"defaults": gin.H{
			"tolerance":          engine.DefaultTolerance,
			"max_iterations":     engine.DefaultMaxIterations,
			"projection_horizon": engine.DefaultYears,
		},
	})
}
