package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transpipe/internal/config"
	"transpipe/internal/logger"
	"transpipe/internal/models"
)

func newTestRenderer(t *testing.T) *HTMLRenderer {
	t.Helper()

	r, err := NewHTMLRenderer(config.OutputConfig{
		Dir:         t.TempDir(),
		LatestCount: 2,
	}, logger.NewNop())
	require.NoError(t, err)

	return r
}

func sampleLang() config.LanguageConfig {
	return config.LanguageConfig{
		Code:         "en",
		Name:         "English",
		RelatedTitle: "Read Also",
	}
}

func TestWriteArticle_AndArtifactExists(t *testing.T) {
	r := newTestRenderer(t)

	article := models.ProcessedArticle{
		Index:    0,
		Title:    "Hello & Welcome",
		Body:     "<p>Body with <b>markup</b>.</p>",
		OutputID: "art_abc123",
		Excerpt:  "Body with markup.",
	}

	require.False(t, r.ArtifactExists("en", "art_abc123"))
	require.NoError(t, r.WriteArticle(sampleLang(), article))
	assert.True(t, r.ArtifactExists("en", "art_abc123"))

	data, err := os.ReadFile(r.ArticlePath("en", "art_abc123"))
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, "<p>Body with <b>markup</b>.</p>", "body must not be escaped")
	assert.Contains(t, html, "Hello &amp; Welcome", "title must be escaped")
}

func TestWriteArticle_CrossReferences(t *testing.T) {
	r := newTestRenderer(t)

	article := models.ProcessedArticle{
		Title:    "Main",
		Body:     "<p>x</p>",
		OutputID: "art_main",
		CrossReferences: []models.CrossReference{
			{Title: "Other", OutputID: "art_other"},
		},
	}

	require.NoError(t, r.WriteArticle(sampleLang(), article))

	data, err := os.ReadFile(r.ArticlePath("en", "art_main"))
	require.NoError(t, err)

	assert.Contains(t, string(data), "Read Also")
	assert.Contains(t, string(data), `<a href="art_other.html">Other</a>`)
}

func TestWriteIndex_LatestTakesTail(t *testing.T) {
	r := newTestRenderer(t)

	articles := []models.ProcessedArticle{
		{Title: "One", OutputID: "a1"},
		{Title: "Two", OutputID: "a2"},
		{Title: "Three", OutputID: "a3"},
	}

	require.NoError(t, r.WriteIndex(sampleLang(), articles))

	data, err := os.ReadFile(filepath.Join(r.dir, "en", "index.html"))
	require.NoError(t, err)

	html := string(data)

	// Latest section holds the last two only, so "One" appears once
	// (full list) while the others appear twice.
	assert.Equal(t, 1, strings.Count(html, `href="a1.html"`))
	assert.Equal(t, 2, strings.Count(html, `href="a2.html"`))
	assert.Equal(t, 2, strings.Count(html, `href="a3.html"`))
}

func TestWriteLanding(t *testing.T) {
	r := newTestRenderer(t)

	langs := []config.LanguageConfig{
		{Code: "en", Name: "English"},
		{Code: "ru", Name: "Русский"},
	}

	latest := []LandingArticle{
		{Lang: langs[0], Article: models.ProcessedArticle{Title: "Fresh", OutputID: "art_fresh", Excerpt: "Just in."}},
		{Lang: langs[1], Article: models.ProcessedArticle{Title: "Свежее", OutputID: "art_svezh"}},
	}

	require.NoError(t, r.WriteLanding(langs, latest))

	data, err := os.ReadFile(filepath.Join(r.dir, "index.html"))
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, `<a href="en/index.html">English</a>`)
	assert.Contains(t, html, `<a href="ru/index.html">Русский</a>`)
	assert.Contains(t, html, `<a href="en/art_fresh.html">Fresh</a>`)
	assert.Contains(t, html, "Just in.")
	assert.Contains(t, html, `<a href="ru/art_svezh.html">Свежее</a>`)
}

func TestWriteLanding_LatestCappedToConfiguredCount(t *testing.T) {
	r := newTestRenderer(t)

	lang := sampleLang()
	latest := []LandingArticle{
		{Lang: lang, Article: models.ProcessedArticle{Title: "Old", OutputID: "a1"}},
		{Lang: lang, Article: models.ProcessedArticle{Title: "Mid", OutputID: "a2"}},
		{Lang: lang, Article: models.ProcessedArticle{Title: "New", OutputID: "a3"}},
	}

	// latestCount is 2 in the fixture; the oldest entry falls off.
	require.NoError(t, r.WriteLanding([]config.LanguageConfig{lang}, latest))

	data, err := os.ReadFile(filepath.Join(r.dir, "index.html"))
	require.NoError(t, err)

	html := string(data)
	assert.NotContains(t, html, `href="en/a1.html"`)
	assert.Contains(t, html, `href="en/a2.html"`)
	assert.Contains(t, html, `href="en/a3.html"`)
}

func TestArtifactExists_DirectoryDoesNotCount(t *testing.T) {
	r := newTestRenderer(t)

	require.NoError(t, os.MkdirAll(r.ArticlePath("en", "art_dir"), 0o755))
	assert.False(t, r.ArtifactExists("en", "art_dir"))
}
