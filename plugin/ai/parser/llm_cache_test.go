package parser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/appointment-assistant/plugin/ai/cache"
)

// countingExtractor records how often the network would have been hit.
type countingExtractor struct {
	calls int
	ext   *Extraction
	err   error
}

func (c *countingExtractor) Extract(_ context.Context, _ string, _ time.Time) (*Extraction, error) {
	c.calls++
	return c.ext, c.err
}

func TestCachedExtractorMemoizes(t *testing.T) {
	start := time.Date(2026, time.March, 5, 15, 0, 0, 0, time.Local)
	inner := &countingExtractor{ext: &Extraction{
		Title: "dentist appointment",
		Start: start,
		End:   start.Add(30 * time.Minute),
	}}
	e := NewCachedExtractor(inner, cache.New(16, time.Minute))
	ctx := context.Background()

	first, err := e.Extract(ctx, "book the dentist tomorrow afternoon", refNow)
	require.NoError(t, err)
	second, err := e.Extract(ctx, "Book the dentist tomorrow afternoon ", refNow)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "case and whitespace variants share one entry")
	assert.Equal(t, first.Title, second.Title)
	assert.True(t, first.Start.Equal(second.Start))
}

func TestCachedExtractorKeyIncludesDay(t *testing.T) {
	inner := &countingExtractor{ext: &Extraction{
		Title: "meeting",
		Start: refNow,
		End:   refNow.Add(30 * time.Minute),
	}}
	e := NewCachedExtractor(inner, cache.New(16, time.Minute))
	ctx := context.Background()

	_, err := e.Extract(ctx, "book a meeting tomorrow at 2pm", refNow)
	require.NoError(t, err)
	_, err = e.Extract(ctx, "book a meeting tomorrow at 2pm", refNow.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "the same words mean a different day tomorrow")
}

func TestCachedExtractorDoesNotCacheErrors(t *testing.T) {
	inner := &countingExtractor{err: context.DeadlineExceeded}
	e := NewCachedExtractor(inner, cache.New(16, time.Minute))
	ctx := context.Background()

	_, err := e.Extract(ctx, "book a meeting tomorrow", refNow)
	require.Error(t, err)
	_, err = e.Extract(ctx, "book a meeting tomorrow", refNow)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}
