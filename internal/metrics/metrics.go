package metrics

import (
	"sync"
	"time"
)

// Metrics counts what one pipeline run did.
type Metrics struct {
	mu sync.RWMutex

	// Ingestion
	EntriesFetched     int64
	SourcesFailed      int64
	ParseFailures      int64
	PostsExtracted     int64
	OutOfWindow        int64
	IrrelevantGeneral  int64
	DuplicatesFiltered int64
	ItemsSelected      int64

	// Translation
	TranslationsCached  int64
	TranslationsFresh   int64
	TranslationsFailed  int64
	TranslationsSkipped int64

	// Timings
	ProcessingTime time.Duration
	StartedAt      time.Time
}

func New(start time.Time) *Metrics {
	return &Metrics{StartedAt: start}
}

func (m *Metrics) add(field *int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field += int64(n)
}

func (m *Metrics) AddEntriesFetched(n int)     { m.add(&m.EntriesFetched, n) }
func (m *Metrics) AddSourcesFailed(n int)      { m.add(&m.SourcesFailed, n) }
func (m *Metrics) AddParseFailures(n int)      { m.add(&m.ParseFailures, n) }
func (m *Metrics) AddPostsExtracted(n int)     { m.add(&m.PostsExtracted, n) }
func (m *Metrics) IncrementOutOfWindow()       { m.add(&m.OutOfWindow, 1) }
func (m *Metrics) IncrementIrrelevantGeneral() { m.add(&m.IrrelevantGeneral, 1) }
func (m *Metrics) AddDuplicatesFiltered(n int) { m.add(&m.DuplicatesFiltered, n) }
func (m *Metrics) AddItemsSelected(n int)      { m.add(&m.ItemsSelected, n) }

func (m *Metrics) IncrementTranslationsCached()  { m.add(&m.TranslationsCached, 1) }
func (m *Metrics) IncrementTranslationsFresh()   { m.add(&m.TranslationsFresh, 1) }
func (m *Metrics) IncrementTranslationsFailed()  { m.add(&m.TranslationsFailed, 1) }
func (m *Metrics) IncrementTranslationsSkipped() { m.add(&m.TranslationsSkipped, 1) }

func (m *Metrics) RecordProcessingTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessingTime = d
}

// Stats is the flat view logged at the end of a run and embedded in the output.
func (m *Metrics) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]any{
		"entries_fetched":      m.EntriesFetched,
		"sources_failed":       m.SourcesFailed,
		"parse_failures":       m.ParseFailures,
		"posts_extracted":      m.PostsExtracted,
		"out_of_window":        m.OutOfWindow,
		"irrelevant_general":   m.IrrelevantGeneral,
		"duplicates_filtered":  m.DuplicatesFiltered,
		"items_selected":       m.ItemsSelected,
		"translations_cached":  m.TranslationsCached,
		"translations_fresh":   m.TranslationsFresh,
		"translations_failed":  m.TranslationsFailed,
		"translations_skipped": m.TranslationsSkipped,
		"processing_time_ms":   m.ProcessingTime.Milliseconds(),
		"started_at":           m.StartedAt.Format(time.RFC3339),
	}
}
