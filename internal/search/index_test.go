package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/dkeye/devcircle/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestIndex_PutSearchRemove(t *testing.T) {
	req := require.New(t)
	ix, err := Open(t.TempDir())
	req.NoError(err)
	defer func() { _ = ix.Close() }()
	ctx := context.Background()

	weather := &domain.API{Meta: domain.Meta{ID: "a1"}, Name: "OpenWeather", Description: "forecast data for any city", Category: "weather"}
	maps := &domain.API{Meta: domain.Meta{ID: "a2"}, Name: "Geocoder", Description: "turn addresses into coordinates", Category: "location"}
	editor := &domain.Tool{Meta: domain.Meta{ID: "t1"}, Name: "Forecast IDE", Description: "an editor", Category: "editor"}
	req.NoError(ix.Put("apis", weather))
	req.NoError(ix.Put("apis", maps))
	req.NoError(ix.Put("tools", editor))

	// Given a word in a description, only the matching listing of that kind comes back
	hits, err := ix.Search(ctx, "apis", "forecast")
	req.NoError(err)
	req.Equal(map[string]struct{}{"a1": {}}, hits)

	hits, err = ix.Search(ctx, "apis", "coordinates")
	req.NoError(err)
	req.Contains(hits, "a2")

	hits, err = ix.Search(ctx, "tools", "forecast")
	req.NoError(err)
	req.Equal(map[string]struct{}{"t1": {}}, hits)

	// Re-indexing replaces the old text
	weather.Description = "sunshine"
	req.NoError(ix.Put("apis", weather))
	hits, err = ix.Search(ctx, "apis", "forecast")
	req.NoError(err)
	req.Empty(hits)

	req.NoError(ix.Remove("apis", "a2"))
	hits, err = ix.Search(ctx, "apis", "coordinates")
	req.NoError(err)
	req.Empty(hits)
}

func TestIndex_BlankQueryMatchesNothing(t *testing.T) {
	ix, err := Open("")
	require.NoError(t, err)
	defer func() { _ = ix.Close() }()

	hits, err := ix.Search(context.Background(), "apis", "   ")
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestRebuild(t *testing.T) {
	req := require.New(t)
	ix, err := Open("")
	req.NoError(err)
	defer func() { _ = ix.Close() }()

	topics := []*domain.Topic{
		{Meta: domain.Meta{ID: "x"}, Name: "Concurrency", Description: "goroutines", Lessons: []domain.Lesson{{Title: "channels"}}},
		{Meta: domain.Meta{ID: "y"}, Name: "Testing", Description: "table tests"},
	}
	req.NoError(Rebuild(ix, "topics", topics))

	hits, err := ix.Search(context.Background(), "topics", "channels")
	req.NoError(err)
	req.Equal(map[string]struct{}{"x": {}}, hits)
}

func TestIndex_SearchReturnsEveryMatch(t *testing.T) {
	req := require.New(t)
	ix, err := Open("")
	req.NoError(err)
	defer func() { _ = ix.Close() }()

	apis := make([]*domain.API, 1500)
	for i := range apis {
		apis[i] = &domain.API{Meta: domain.Meta{ID: fmt.Sprintf("a%d", i)}, Name: fmt.Sprintf("Weather %d", i), Description: "forecast", Category: "weather"}
	}
	req.NoError(Rebuild(ix, "apis", apis))

	hits, err := ix.Search(context.Background(), "apis", "forecast")
	req.NoError(err)
	req.Len(hits, len(apis))
}
