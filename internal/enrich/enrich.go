// Package enrich derives article metadata (slug, excerpt), injects the
// outbound reference link, and assigns cross-references over the completed
// result set.
//
// All randomized choices (backlink target, anchor phrase, cross-reference
// subset) flow through one injected randomness source so runs are
// reproducible under a fixed seed. Only the constraints are load-bearing:
// count bounds and exclusion of self.
package enrich

import (
	"fmt"
	"html"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"transpipe/internal/config"
	"transpipe/internal/models"
)

var (
	slugStripRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugCollapseRe = regexp.MustCompile(`[-\s]+`)
)

// Enricher holds the metadata tunables and the shared randomness source.
type Enricher struct {
	meta config.MetaConfig
	mu   sync.Mutex
	rng  *rand.Rand
}

// New creates an Enricher. The rand source is owned by the Enricher from
// here on; access is serialized internally so workers may share it.
func New(meta config.MetaConfig, rng *rand.Rand) *Enricher {
	return &Enricher{meta: meta, rng: rng}
}

// Slug derives a URL-safe slug from a title: lowercase, characters outside
// word/space/hyphen classes stripped, whitespace and hyphen runs collapsed
// to single hyphens, truncated to the configured maximum.
func (e *Enricher) Slug(title string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(title), "")
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if runes := []rune(slug); len(runes) > e.meta.SlugMaxLength {
		slug = strings.Trim(string(runes[:e.meta.SlugMaxLength]), "-")
	}

	return slug
}

// Excerpt derives a short plain-text excerpt from HTML content: markup
// stripped, truncated to the configured budget, preferring the last
// sentence boundary within the budget unless it falls too early.
func (e *Enricher) Excerpt(content string) string {
	if content == "" {
		return ""
	}

	text := stripMarkup(content)

	runes := []rune(text)
	if len(runes) <= e.meta.ExcerptMaxLength {
		return text
	}

	truncated := string(runes[:e.meta.ExcerptMaxLength])

	// The boundary check compares rune positions on both sides; the byte
	// offset from LastIndex overshoots on multibyte text.
	if idx := strings.LastIndex(truncated, "."); idx >= 0 {
		if utf8.RuneCountInString(truncated[:idx]) > int(float64(e.meta.ExcerptMaxLength)*e.meta.EarlyCutRatio) {
			return truncated[:idx+1]
		}
	}

	return truncated + "..."
}

// StripAnchors removes all <a> tags from content, keeping their inner
// text. Content is sanitized this way before translation so upstream links
// never survive into the output.
func StripAnchors(content string) string {
	if content == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml(sel.Text())
	})

	return innerBody(doc, content)
}

// InjectBacklink appends a visible reference link: inside the last
// paragraph when one exists, otherwise as a new trailing paragraph
// prefixed with the language's source label.
func InjectBacklink(content, targetURL, anchorText, sourceLabel string) string {
	if content == "" || targetURL == "" {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	link := fmt.Sprintf(`<a href=%q rel="dofollow">%s</a>`, targetURL, html.EscapeString(anchorText))

	if paragraphs := doc.Find("p"); paragraphs.Length() > 0 {
		paragraphs.Last().AppendHtml(" — " + link)
	} else {
		doc.Find("body").AppendHtml(fmt.Sprintf("<p>%s %s</p>", html.EscapeString(sourceLabel), link))
	}

	return innerBody(doc, content)
}

// PickBacklink selects one target URL from the candidate pool and one
// anchor phrase from the language's list. Empty pools yield empty values.
func (e *Enricher) PickBacklink(pool, anchors []string) (targetURL, anchorText string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(pool) > 0 {
		targetURL = pool[e.rng.Intn(len(pool))]
	}

	if len(anchors) > 0 {
		anchorText = anchors[e.rng.Intn(len(anchors))]
	}

	return targetURL, anchorText
}

// AssignCrossReferences populates each article's cross-reference list with
// a random subset of the *other* articles in the same language. It must
// run only after the final sorted list exists; each article's choice is
// independent of every other article's.
func (e *Enricher) AssignCrossReferences(articles []models.ProcessedArticle, minLinks, maxLinks int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool := len(articles) - 1
	if pool < 0 {
		return
	}

	for i := range articles {
		lo, hi := minLinks, maxLinks
		if lo > pool {
			lo = pool
		}

		if hi > pool {
			hi = pool
		}

		n := lo
		if hi > lo {
			n = lo + e.rng.Intn(hi-lo+1)
		}

		if n == 0 {
			articles[i].CrossReferences = nil

			continue
		}

		candidates := make([]int, 0, pool)

		for j := range articles {
			if j != i {
				candidates = append(candidates, j)
			}
		}

		e.rng.Shuffle(len(candidates), func(a, b int) {
			candidates[a], candidates[b] = candidates[b], candidates[a]
		})

		refs := make([]models.CrossReference, 0, n)
		for _, j := range candidates[:n] {
			refs = append(refs, models.CrossReference{
				Title:    articles[j].Title,
				OutputID: articles[j].OutputID,
			})
		}

		articles[i].CrossReferences = refs
	}
}

// stripMarkup returns the text content of an HTML fragment.
func stripMarkup(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}

// innerBody extracts the fragment back out of the parsed document,
// falling back to the original content on error.
func innerBody(doc *goquery.Document, fallback string) string {
	out, err := doc.Find("body").Html()
	if err != nil {
		return fallback
	}

	return out
}
