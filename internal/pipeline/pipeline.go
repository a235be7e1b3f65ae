// Package pipeline orchestrates a run: partitioning records against the
// progress ledger, fanning pending items out to a bounded worker pool,
// and finishing each language with the sorted cross-reference pass and
// index rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"transpipe/internal/cache"
	"transpipe/internal/config"
	"transpipe/internal/enrich"
	"transpipe/internal/logger"
	"transpipe/internal/models"
	"transpipe/internal/progress"
	"transpipe/internal/render"
	"transpipe/internal/report"
)

// outputIDLen is how much of the title fingerprint names the artifact.
const outputIDLen = 16

// ErrNoRecords indicates a run invoked with an empty record set. An empty
// source is a configuration problem, not a successful no-op.
var ErrNoRecords = errors.New("no input records")

// TextTranslator is the translation dependency of the pipeline.
type TextTranslator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (translated string, live bool)
}

// Runner drives the whole processing flow for all configured languages.
type Runner struct {
	cfg        *config.Config
	translator TextTranslator
	progress   *progress.Store
	enricher   *enrich.Enricher
	renderer   render.Renderer
	log        *logger.Logger
}

// NewRunner wires a Runner from its dependencies.
func NewRunner(
	cfg *config.Config,
	translator TextTranslator,
	store *progress.Store,
	enricher *enrich.Enricher,
	renderer render.Renderer,
	log *logger.Logger,
) *Runner {
	return &Runner{
		cfg:        cfg,
		translator: translator,
		progress:   store,
		enricher:   enricher,
		renderer:   renderer,
		log:        log,
	}
}

// OutputID derives the stable artifact name for a record in a target
// language. It depends only on source data, which is what makes restarted
// runs find their earlier artifacts. The index is part of the fingerprint
// so records sharing a title still get distinct artifacts, and no two
// workers can ever write the same path.
func OutputID(index int, title, lang string) string {
	return "art_" + cache.Fingerprint(fmt.Sprintf("%d|%s", index, title), lang)[:outputIDLen]
}

// Run processes every record into every configured language. The backlink
// pool may be empty, in which case no backlinks are injected. The report
// is returned even when the run was interrupted.
func (r *Runner) Run(ctx context.Context, records []models.Record, pool []string) (*report.Report, error) {
	rep := report.New()

	if len(records) == 0 {
		return rep, ErrNoRecords
	}

	var latest []render.LandingArticle

	for _, lang := range r.cfg.Languages {
		if ctx.Err() != nil {
			break
		}

		articles := r.runLanguage(ctx, lang, records, pool, rep)

		// Everything below the sort sees the final per-language order.
		sort.Slice(articles, func(i, j int) bool {
			return articles[i].Index < articles[j].Index
		})

		r.enricher.AssignCrossReferences(articles, r.cfg.Linker.MinLinks, r.cfg.Linker.MaxLinks)

		r.finishLanguage(lang, articles, rep)

		tail := articles
		if n := r.cfg.Output.LatestCount; n > 0 && len(tail) > n {
			tail = tail[len(tail)-n:]
		}

		for _, article := range tail {
			latest = append(latest, render.LandingArticle{Lang: lang, Article: article})
		}
	}

	if err := r.progress.Flush(); err != nil {
		return rep, fmt.Errorf("failed to flush progress ledger: %w", err)
	}

	if ctx.Err() != nil {
		return rep, ctx.Err()
	}

	if err := r.renderer.WriteLanding(r.cfg.Languages, latest); err != nil {
		return rep, err
	}

	return rep, nil
}

// runLanguage partitions records for one language and runs the pending
// ones through the worker pool. It returns every article that has an
// artifact by the end, skipped or freshly processed.
func (r *Runner) runLanguage(ctx context.Context, lang config.LanguageConfig, records []models.Record, pool []string, rep *report.Report) []models.ProcessedArticle {
	log := r.log.With("lang", lang.Code)

	var (
		articles []models.ProcessedArticle
		pending  []models.Record
	)

	for _, rec := range records {
		entry, ok := r.progress.Entry(lang.Code, rec.Index)
		if ok && r.progress.IsDone(lang.Code, rec.Index) {
			articles = append(articles, models.ProcessedArticle{
				Index:    rec.Index,
				Title:    entry.Title,
				OutputID: entry.OutputID,
				Slug:     entry.Slug,
				Excerpt:  entry.Excerpt,
				Skipped:  true,
			})

			rep.AddSkipped(lang.Code)

			continue
		}

		pending = append(pending, rec)
	}

	log.Info("language partitioned", "total", len(records), "done", len(articles), "pending", len(pending))

	if len(pending) == 0 {
		return articles
	}

	workers := r.cfg.Pipeline.Workers
	if workers > len(pending) {
		workers = len(pending)
	}

	jobs := make(chan models.Record)
	results := make(chan models.ProcessedArticle)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for rec := range jobs {
				if article, ok := r.processRecord(ctx, lang, rec, pool, rep); ok {
					results <- article
				}
			}
		}()
	}

	go func() {
		defer close(jobs)

		for _, rec := range pending {
			select {
			case <-ctx.Done():
				return
			case jobs <- rec:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// The checkpoint cadence counts skipped items too, so a mostly-done
	// run still flushes on the same schedule.
	completed := len(articles)

	for article := range results {
		articles = append(articles, article)
		completed++

		if interval := r.cfg.Pipeline.CheckpointInterval; interval > 0 && completed%interval == 0 {
			if err := r.progress.Flush(); err != nil {
				log.Warn("checkpoint flush failed", "error", err.Error())
			} else {
				log.Debug("checkpoint flushed", "completed", completed)
			}
		}
	}

	return articles
}

// processRecord runs one record through translation, enrichment and
// rendering. It reports false when no artifact was produced.
func (r *Runner) processRecord(ctx context.Context, lang config.LanguageConfig, rec models.Record, pool []string, rep *report.Report) (models.ProcessedArticle, bool) {
	if ctx.Err() != nil {
		return models.ProcessedArticle{}, false
	}

	srcLang := r.cfg.Source.Language

	title, titleLive := r.translator.Translate(ctx, rec.Title, srcLang, lang.Code)

	body := enrich.StripAnchors(rec.Body)
	body, bodyLive := r.translator.Translate(ctx, body, srcLang, lang.Code)

	// An interrupted item must not be recorded done with a half-degraded
	// translation it never got a fair shot at.
	if ctx.Err() != nil {
		return models.ProcessedArticle{}, false
	}

	if target, anchor := r.enricher.PickBacklink(pool, lang.Anchors); target != "" {
		body = enrich.InjectBacklink(body, target, anchor, lang.SourceLabel)
	}

	article := models.ProcessedArticle{
		Index:    rec.Index,
		Title:    title,
		Body:     body,
		OutputID: OutputID(rec.Index, rec.Title, lang.Code),
		Slug:     r.enricher.Slug(title),
		Excerpt:  r.enricher.Excerpt(body),
	}

	if err := r.renderer.WriteArticle(lang, article); err != nil {
		r.log.Error("failed to write article", "lang", lang.Code, "index", rec.Index, "error", err.Error())
		rep.AddFailure(lang.Code, rec.Index, rec.Title, err)

		return models.ProcessedArticle{}, false
	}

	r.progress.RecordDone(lang.Code, rec.Index, models.ProgressEntry{
		Title:    article.Title,
		OutputID: article.OutputID,
		Slug:     article.Slug,
		Excerpt:  article.Excerpt,
	})

	rep.AddProcessed(lang.Code)

	if !titleLive || !bodyLive {
		rep.AddDegraded(lang.Code)
	}

	return article, true
}

// finishLanguage rewrites this run's article pages with their assigned
// cross-references and renders the language index. Skipped articles keep
// the pages from their original run.
func (r *Runner) finishLanguage(lang config.LanguageConfig, articles []models.ProcessedArticle, rep *report.Report) {
	for _, article := range articles {
		if article.Skipped {
			continue
		}

		if err := r.renderer.WriteArticle(lang, article); err != nil {
			r.log.Error("failed to rewrite article with cross-references",
				"lang", lang.Code, "index", article.Index, "error", err.Error())
			rep.AddFailure(lang.Code, article.Index, article.Title, err)
		}
	}

	if len(articles) > 0 {
		if err := r.renderer.WriteIndex(lang, articles); err != nil {
			r.log.Error("failed to write index", "lang", lang.Code, "error", err.Error())
		}
	}
}
