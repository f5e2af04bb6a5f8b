package engine

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubHost struct {
	detect    DetectorFactory
	translate TranslatorFactory
	summarize SummarizerFactory
}

func (h stubHost) Name() string { return "stub" }
func (h stubHost) LanguageDetector() DetectorFactory { return h.detect }
func (h stubHost) Translator() TranslatorFactory { return h.translate }
func (h stubHost) Summarizer() SummarizerFactory { return h.summarize }
func (h stubHost) Close() error { return nil }

type stubSummarizers struct{}

func (stubSummarizers) Availability(context.Context) (Availability, error) {
	return AvailabilityReadily, nil
}

func (stubSummarizers) Create(context.Context, SummarizerOptions) (Summarizer, error) {
	return stubSummarizer{}, nil
}

type stubSummarizer struct{}

func (stubSummarizer) Ready(context.Context) error { return nil }
func (stubSummarizer) Summarize(context.Context, string, string) (string, error) {
	return "", nil
}
func (stubSummarizer) SummarizeStreaming(context.Context, string, string) iter.Seq2[string, error] {
	return func(func(string, error) bool) {}
}
func (stubSummarizer) Close() error { return nil }

func TestNegotiate(t *testing.T) {
	assert.Equal(t, Set(0), Negotiate(nil))
	assert.Equal(t, Set(0), Negotiate(stubHost{}))

	s := Negotiate(stubHost{summarize: stubSummarizers{}})
	assert.True(t, s.Has(Summarization))
	assert.False(t, s.Has(Detection))
	assert.False(t, s.Has(Translation))
	assert.Equal(t, []Capability{Summarization}, s.List())
	assert.Equal(t, "summarization", s.String())
}

func TestSet_Map(t *testing.T) {
	s := Set(0).With(Detection).With(Translation)

	assert.Equal(t, map[string]bool{
		"detection":     true,
		"translation":   true,
		"summarization": false,
	}, s.Map())
	assert.Equal(t, "detection,translation", s.String())
	assert.Equal(t, "none", Set(0).String())
}

func TestMonitorFunc(t *testing.T) {
	var got []DownloadProgress
	m := MonitorFunc(func(c Capability, p DownloadProgress) {
		assert.Equal(t, Translation, c)
		got = append(got, p)
	})

	Notify(m, Translation, DownloadProgress{Loaded: 10, Total: 100})
	Notify(nil, Translation, DownloadProgress{Loaded: 20, Total: 100})

	assert.Equal(t, []DownloadProgress{{Loaded: 10, Total: 100}}, got)
}
