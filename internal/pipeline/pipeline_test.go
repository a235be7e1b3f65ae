package pipeline

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transpipe/internal/config"
	"transpipe/internal/enrich"
	"transpipe/internal/logger"
	"transpipe/internal/models"
	"transpipe/internal/progress"
	"transpipe/internal/render"
)

// fakeTranslator uppercases input and counts live calls. A degradeOn set
// makes selected inputs fall back to the original text.
type fakeTranslator struct {
	calls     atomic.Int32
	degradeOn map[string]bool
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return text, true
	}

	f.calls.Add(1)

	if f.degradeOn[text] {
		return text, false
	}

	return strings.ToUpper(text), true
}

type fixture struct {
	cfg        *config.Config
	translator *fakeTranslator
	store      *progress.Store
	renderer   *render.HTMLRenderer
	runner     *Runner
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Source.Language = "uz"
	cfg.Languages = []config.LanguageConfig{
		{Code: "en", Name: "English", Anchors: []string{"read more"}, SourceLabel: "Source:", RelatedTitle: "Read Also"},
	}
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Output.ProgressFile = filepath.Join(dir, ".progress.json")
	cfg.Pipeline.Workers = 3
	cfg.Pipeline.CheckpointInterval = 2
	cfg.Linker.MinLinks = 1
	cfg.Linker.MaxLinks = 2

	log := logger.NewNop()

	renderer, err := render.NewHTMLRenderer(cfg.Output, log)
	require.NoError(t, err)

	store := progress.NewStore(cfg.Output.ProgressFile, renderer, log)
	translator := &fakeTranslator{}
	enricher := enrich.New(cfg.Meta, rand.New(rand.NewSource(1)))

	return &fixture{
		cfg:        cfg,
		translator: translator,
		store:      store,
		renderer:   renderer,
		runner:     NewRunner(cfg, translator, store, enricher, renderer, log),
	}
}

func sampleRecords() []models.Record {
	return []models.Record{
		{Index: 0, Title: "Birinchi maqola", Body: "<p>Matn bir.</p>"},
		{Index: 1, Title: "Ikkinchi maqola", Body: "<p>Matn ikki.</p>"},
		{Index: 2, Title: "Uchinchi maqola", Body: "<p>Matn uch.</p>"},
	}
}

func TestRun_FreshRunProcessesEverything(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)

	rep, err := f.runner.Run(context.Background(), sampleRecords(), nil)
	require.NoError(t, err)
	require.False(t, rep.HasFailures())

	for i, rec := range sampleRecords() {
		assert.True(t, f.store.IsDone("en", i))
		assert.True(t, f.renderer.ArtifactExists("en", OutputID(rec.Index, rec.Title, "en")))
	}

	// Index, landing and ledger land on disk.
	assert.FileExists(t, filepath.Join(f.cfg.Output.Dir, "en", "index.html"))
	assert.FileExists(t, filepath.Join(f.cfg.Output.Dir, "index.html"))
	assert.FileExists(t, f.cfg.Output.ProgressFile)
	assert.Contains(t, rep.Summary(), "| en ")
}

func TestRun_ArticlePagesCarryCrossReferences(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)

	_, err := f.runner.Run(context.Background(), sampleRecords(), nil)
	require.NoError(t, err)

	withRefs := 0

	for _, rec := range sampleRecords() {
		data, err := os.ReadFile(f.renderer.ArticlePath("en", OutputID(rec.Index, rec.Title, "en")))
		require.NoError(t, err)

		if strings.Contains(string(data), "Read Also") {
			withRefs++
		}
	}

	assert.Equal(t, 3, withRefs, "every page links to others after the final pass")
}

func TestRun_BacklinkInjectedFromPool(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)

	_, err := f.runner.Run(context.Background(), sampleRecords(), []string{"https://example.test/ref"})
	require.NoError(t, err)

	data, err := os.ReadFile(f.renderer.ArticlePath("en", OutputID(0, "Birinchi maqola", "en")))
	require.NoError(t, err)

	assert.Contains(t, string(data), `<a href="https://example.test/ref" rel="dofollow">read more</a>`)
}

func TestRun_SecondRunSkipsEverything(t *testing.T) {
	dir := t.TempDir()

	first := newFixture(t, dir)
	_, err := first.runner.Run(context.Background(), sampleRecords(), nil)
	require.NoError(t, err)

	// Fresh stack over the same output dir and ledger, as after a restart.
	second := newFixture(t, dir)

	rep, err := second.runner.Run(context.Background(), sampleRecords(), nil)
	require.NoError(t, err)

	assert.Equal(t, int32(0), second.translator.calls.Load(), "a completed run must resume with zero live calls")
	assert.NotEmpty(t, rep.Summary())
}

func TestRun_DeletedArtifactIsReprocessed(t *testing.T) {
	dir := t.TempDir()

	first := newFixture(t, dir)
	_, err := first.runner.Run(context.Background(), sampleRecords(), nil)
	require.NoError(t, err)

	// Losing one output file invalidates only that item.
	removed := OutputID(1, "Ikkinchi maqola", "en")
	require.NoError(t, os.Remove(first.renderer.ArticlePath("en", removed)))

	second := newFixture(t, dir)

	_, err = second.runner.Run(context.Background(), sampleRecords(), nil)
	require.NoError(t, err)

	assert.True(t, second.renderer.ArtifactExists("en", removed))
	assert.Equal(t, int32(2), second.translator.calls.Load(), "only the lost item's title and body go live")
}

func TestRun_DegradedItemStillCompletes(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)
	f.translator.degradeOn = map[string]bool{"<p>Matn ikki.</p>": true}

	rep, err := f.runner.Run(context.Background(), sampleRecords(), nil)
	require.NoError(t, err)

	assert.True(t, f.store.IsDone("en", 1), "degraded items are recorded done")
	assert.False(t, rep.HasFailures())
	assert.Contains(t, rep.Summary(), "Degraded")

	data, err := os.ReadFile(f.renderer.ArticlePath("en", OutputID(1, "Ikkinchi maqola", "en")))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Matn ikki.", "degraded body keeps the original text")
}

func TestRun_CancelledContextStopsAndFlushes(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := f.runner.Run(ctx, sampleRecords(), nil)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.FileExists(t, f.cfg.Output.ProgressFile, "the ledger is flushed even on interruption")
}

func TestRun_NoRecordsIsAnError(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)

	rep, err := f.runner.Run(context.Background(), nil, nil)

	assert.ErrorIs(t, err, ErrNoRecords)
	require.NotNil(t, rep)
	assert.Equal(t, int32(0), f.translator.calls.Load())
	assert.NoFileExists(t, filepath.Join(f.cfg.Output.Dir, "index.html"), "no landing page for an empty source")
}

func TestRun_DuplicateTitlesKeepDistinctArtifacts(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)

	records := []models.Record{
		{Index: 0, Title: "Same title", Body: "<p>First body.</p>"},
		{Index: 1, Title: "Same title", Body: "<p>Second body.</p>"},
	}

	rep, err := f.runner.Run(context.Background(), records, nil)
	require.NoError(t, err)
	require.False(t, rep.HasFailures())

	first := OutputID(0, "Same title", "en")
	second := OutputID(1, "Same title", "en")

	require.NotEqual(t, first, second)
	assert.True(t, f.renderer.ArtifactExists("en", first))
	assert.True(t, f.renderer.ArtifactExists("en", second))

	dataFirst, err := os.ReadFile(f.renderer.ArticlePath("en", first))
	require.NoError(t, err)

	dataSecond, err := os.ReadFile(f.renderer.ArticlePath("en", second))
	require.NoError(t, err)

	assert.Contains(t, string(dataFirst), "First body.")
	assert.Contains(t, string(dataSecond), "Second body.")
}

func TestRun_LandingCarriesLatestArticles(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)

	_, err := f.runner.Run(context.Background(), sampleRecords(), nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.cfg.Output.Dir, "index.html"))
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, `href="en/index.html"`)

	id := OutputID(2, "Uchinchi maqola", "en")
	assert.Contains(t, html, `href="en/`+id+`.html"`, "landing feed links the newest article")
}

func TestOutputID_StablePerRecordAndLang(t *testing.T) {
	a := OutputID(0, "Title", "en")

	assert.Equal(t, a, OutputID(0, "Title", "en"))
	assert.NotEqual(t, a, OutputID(0, "Title", "ru"))
	assert.NotEqual(t, a, OutputID(0, "Other", "en"))
	assert.NotEqual(t, a, OutputID(1, "Title", "en"), "same title at another index names another artifact")
	assert.True(t, strings.HasPrefix(a, "art_"))
	assert.Len(t, a, 4+16)
}
