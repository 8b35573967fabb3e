package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mfi-alm/internal/api/models"
	"mfi-alm/internal/mortality"
)

const defaultLifetimeSeed = 42

// Lifetime handles POST /api/v1/lifetime
func Lifetime(c *gin.Context) {
	var req models.LifetimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	table, err := lifeTableFrom(req)
	if err != nil {
		badRequest(c, "INVALID_TABLE", err)
		return
	}

	horizon := req.Horizon
	if horizon <= 0 {
		horizon = mortality.DefaultHorizon
	}
	seed := uint64(defaultLifetimeSeed)
	if req.Seed != nil {
		seed = *req.Seed
	}

	dist := table.RemainingLifetimeDistribution(req.Age, horizon)
	expected := 0.0
	for k, p := range dist {
		expected += float64(k) * p
	}

	c.JSON(http.StatusOK, models.LifetimeResponse{
		Age:                     req.Age,
		MaxAge:                  table.MaxAge(),
		Horizon:                 horizon,
		Seed:                    seed,
		Sample:                  table.SampleRemainingLifetime(req.Age, seed, horizon),
		ExpectedLifetime:        expected,
		OneYearDeathProbability: table.OneYearDeathProbability(req.Age),
		Distribution:            dist,
	})
}

func lifeTableFrom(req models.LifetimeRequest) (*mortality.LifeTable, error) {
	switch {
	case len(req.Table) > 0:
		rows := make([]mortality.Row, len(req.Table))
		for i, r := range req.Table {
			rows[i] = mortality.Row{Age: r.Age, Survivors: r.Survivors}
		}
		return mortality.NewLifeTable(rows)
	case req.Mu != nil:
		if *req.Mu < 0 {
			return nil, errors.New("mu must be >= 0")
		}
		return mortality.Synthesize(*req.Mu, mortality.DefaultHorizon), nil
	default:
		return nil, errors.New("either mu or table is required")
	}
}
