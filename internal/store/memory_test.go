package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"landplot/internal/errkind"
	"landplot/internal/geometry"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlot(name, owner string, area float64) Plot {
	return Plot{
		Name:  name,
		Owner: owner,
		Shape: Shape{Geometry: square.Clone(), Area: area, Perimeter: 4, SideLengths: []float64{1, 1, 1, 1}},
	}
}

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	p, err := repo.Insert(ctx, newPlot("a", "alice", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, json.RawMessage(`{}`), p.Properties)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	owner := "bob"
	upd, err := repo.Update(ctx, p.ID, Patch{Owner: &owner})
	require.NoError(t, err)
	assert.Equal(t, "bob", upd.Owner)
	assert.Equal(t, p.Shape, upd.Shape)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, errkind.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, p.ID), errkind.ErrNotFound))
}

func TestMemoryIsolatesCallerSlices(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	in := newPlot("a", "alice", 1)
	p, err := repo.Insert(ctx, in)
	require.NoError(t, err)

	in.Geometry[0].X = 99
	p.SideLengths[0] = 99
	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Geometry[0].X)
	assert.Equal(t, 1.0, got.SideLengths[0])
}

func TestMemoryDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	_, err := repo.Insert(ctx, newPlot("a", "alice", 1))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newPlot("a", "alice", 2))
	assert.True(t, errors.Is(err, errkind.ErrDuplicateKey))

	b, err := repo.Insert(ctx, newPlot("b", "alice", 2))
	require.NoError(t, err)
	name := "a"
	_, err = repo.Update(ctx, b.ID, Patch{Name: &name})
	assert.True(t, errors.Is(err, errkind.ErrDuplicateKey))
}

func TestMemoryListOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	for i, area := range []float64{3, 1, 2} {
		_, err := repo.Insert(ctx, newPlot(string(rune('a'+i)), "alice", area))
		require.NoError(t, err)
	}

	plots, err := repo.List(ctx, ListOptions{OrderBy: "area"})
	require.NoError(t, err)
	require.Len(t, plots, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{plots[0].Area, plots[1].Area, plots[2].Area})

	plots, err = repo.List(ctx, ListOptions{OrderBy: "id", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, []int64{plots[0].ID, plots[1].ID, plots[2].ID})

	_, err = repo.List(ctx, ListOptions{OrderBy: "color"})
	assert.Error(t, err)
}

func TestMemoryHonoursContext(t *testing.T) {
	repo := NewMemory()
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := repo.Insert(ctx, newPlot("a", "alice", 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrStorage))
	assert.True(t, errkind.IsTransient(err))
}

func TestMemoryConcurrentShapeUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	p, err := repo.Insert(ctx, newPlot("a", "alice", 1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(k float64) {
			defer wg.Done()
			ring := geometry.Ring{{X: 0, Y: 0}, {X: k, Y: 0}, {X: k, Y: k}, {X: 0, Y: k}, {X: 0, Y: 0}}
			_, err := repo.Update(ctx, p.ID, Patch{Shape: &Shape{
				Geometry: ring, Area: k * k, Perimeter: 4 * k, SideLengths: []float64{k, k, k, k},
			}})
			assert.NoError(t, err)
		}(float64(i))
	}
	wg.Wait()

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	k := got.Geometry[1].X
	assert.Equal(t, k*k, got.Area)
	assert.Equal(t, 4*k, got.Perimeter)
	assert.Equal(t, []float64{k, k, k, k}, got.SideLengths)
}
