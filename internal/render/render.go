// Package render writes the HTML output tree: one page per article, an
// index per language, and a landing page linking the languages together.
// Because each article lands in a well-known path, the renderer also
// answers existence checks for resume verification.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"transpipe/internal/config"
	"transpipe/internal/logger"
	"transpipe/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// LandingArticle pairs an article with its language for the root feed.
type LandingArticle struct {
	Lang    config.LanguageConfig
	Article models.ProcessedArticle
}

// Renderer writes processed articles as site artifacts.
type Renderer interface {
	WriteArticle(lang config.LanguageConfig, article models.ProcessedArticle) error
	WriteIndex(lang config.LanguageConfig, articles []models.ProcessedArticle) error
	WriteLanding(langs []config.LanguageConfig, latest []LandingArticle) error
	ArtifactExists(lang, outputID string) bool
}

// HTMLRenderer renders articles into per-language directories under a
// single output root.
type HTMLRenderer struct {
	dir         string
	latestCount int
	tmpl        *template.Template
	log         *logger.Logger
}

type articlePage struct {
	Lang    config.LanguageConfig
	Article models.ProcessedArticle
	Body    template.HTML
}

type indexPage struct {
	Lang     config.LanguageConfig
	Articles []models.ProcessedArticle
	Latest   []models.ProcessedArticle
}

type landingPage struct {
	Languages []config.LanguageConfig
	Latest    []LandingArticle
}

// NewHTMLRenderer creates a renderer rooted at cfg.Dir.
func NewHTMLRenderer(cfg config.OutputConfig, log *logger.Logger) (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &HTMLRenderer{
		dir:         cfg.Dir,
		latestCount: cfg.LatestCount,
		tmpl:        tmpl,
		log:         log,
	}, nil
}

// ArticlePath returns where an article artifact lives on disk.
func (r *HTMLRenderer) ArticlePath(lang, outputID string) string {
	return filepath.Join(r.dir, lang, outputID+".html")
}

// ArtifactExists reports whether the article file is present on disk.
func (r *HTMLRenderer) ArtifactExists(lang, outputID string) bool {
	info, err := os.Stat(r.ArticlePath(lang, outputID))

	return err == nil && !info.IsDir()
}

// WriteArticle renders one article page. The body has been through the
// whole pipeline already and is trusted HTML at this point.
func (r *HTMLRenderer) WriteArticle(lang config.LanguageConfig, article models.ProcessedArticle) error {
	page := articlePage{
		Lang:    lang,
		Article: article,
		Body:    template.HTML(article.Body),
	}

	path := r.ArticlePath(lang.Code, article.OutputID)
	if err := r.writeTemplate(path, "article.html.tmpl", page); err != nil {
		return err
	}

	r.log.Debug("article written", "lang", lang.Code, "output_id", article.OutputID)

	return nil
}

// WriteIndex renders the per-language index. Articles are expected in
// final sorted order; the latest section takes from the end of the list.
func (r *HTMLRenderer) WriteIndex(lang config.LanguageConfig, articles []models.ProcessedArticle) error {
	latest := articles
	if r.latestCount > 0 && len(articles) > r.latestCount {
		latest = articles[len(articles)-r.latestCount:]
	}

	page := indexPage{
		Lang:     lang,
		Articles: articles,
		Latest:   latest,
	}

	return r.writeTemplate(filepath.Join(r.dir, lang.Code, "index.html"), "index.html.tmpl", page)
}

// WriteLanding renders the root page: the language indexes plus the
// cross-language latest-articles feed, capped to the configured count.
func (r *HTMLRenderer) WriteLanding(langs []config.LanguageConfig, latest []LandingArticle) error {
	if r.latestCount > 0 && len(latest) > r.latestCount {
		latest = latest[len(latest)-r.latestCount:]
	}

	page := landingPage{
		Languages: langs,
		Latest:    latest,
	}

	return r.writeTemplate(filepath.Join(r.dir, "index.html"), "landing.html.tmpl", page)
}

func (r *HTMLRenderer) writeTemplate(path, name string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := r.tmpl.ExecuteTemplate(f, name, data); err != nil {
		f.Close()

		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}
