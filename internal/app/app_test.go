package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"landplot/internal/config"
	"landplot/internal/measure"
	"landplot/internal/plots"
	"landplot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceFollowsConfig(t *testing.T) {
	cfg := config.Config{
		DistanceModel:         measure.Planar,
		CheckSelfIntersection: true,
		StorageTimeout:        time.Second,
	}
	svc := NewService(cfg, store.NewMemory(), nil)
	assert.Equal(t, measure.Planar, svc.Model())

	_, err := svc.CreatePlot(context.Background(), plots.CreateInput{
		Name: "bowtie", Owner: "o", Geometry: json.RawMessage(`[[0,0],[1,1],[1,0],[0,1],[0,0]]`),
	})
	require.Error(t, err)

	v, err := svc.CreatePlot(context.Background(), plots.CreateInput{
		Name: "square", Owner: "o", Geometry: json.RawMessage(`[[0,0],[1,0],[1,1],[0,1],[0,0]]`),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Area)
}
