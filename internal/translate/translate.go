// Package translate wraps translation providers with the persistent
// translation store and a primary → secondary → original fallback chain.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/awano27/daily-ai-news/internal/cache"
	"github.com/awano27/daily-ai-news/internal/logger"
	"github.com/awano27/daily-ai-news/internal/news"
	"github.com/awano27/daily-ai-news/internal/normalize"
)

// MaxTextRunes caps the text sent to a provider.
const MaxTextRunes = 500

// Provider is one translation backend.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Store is the persistent key → translation map.
type Store interface {
	Get(key string) (string, bool)
	Put(key, value string) bool
}

// Limiter gates provider requests.
type Limiter interface {
	Acquire(ctx context.Context, provider string) error
	RecordCacheHit()
}

type Result struct {
	Text       string
	Provenance news.Provenance
	FromCache  bool
	Skipped    bool             // text already in the target script
	Provider   string           // provider that produced a fresh translation
	Err        *news.StageError // set when every provider failed
}

type Translator struct {
	store     Store
	providers []Provider
	limiter   Limiter
	target    string
}

// NewTranslator builds a translator into target. Nil providers are ignored;
// limiter may be nil.
func NewTranslator(store Store, target string, limiter Limiter, providers ...Provider) *Translator {
	t := &Translator{store: store, limiter: limiter, target: target}
	for _, p := range providers {
		if p != nil {
			t.providers = append(t.providers, p)
		}
	}
	return t
}

// Key is the store key for text shown under link.
func Key(link, text string) string {
	return cache.GenerateKey(link, text)
}

// Translate returns the translation of text, or text itself with the
// original provenance. It never fails the caller.
func (t *Translator) Translate(ctx context.Context, link, text string) Result {
	original := Result{Text: text, Provenance: news.ProvenanceOriginal}
	if strings.TrimSpace(text) == "" {
		return original
	}
	if t.target == "ja" && normalize.HasJapanese(text) {
		original.Skipped = true
		return original
	}

	key := Key(link, text)
	if t.store != nil {
		if v, ok := t.store.Get(key); ok {
			if t.limiter != nil {
				t.limiter.RecordCacheHit()
			}
			return Result{Text: v, Provenance: news.ProvenanceTranslated, FromCache: true}
		}
	}

	from := normalize.DetectLanguage(text)
	if from == "" {
		from = "auto"
	}
	if from == t.target {
		original.Skipped = true
		return original
	}
	input := normalize.Truncate(text, MaxTextRunes)

	var errs []error
	for _, p := range t.providers {
		out, err := t.call(ctx, p, input, from)
		if err != nil {
			logger.Debug("translation provider failed", "provider", p.Name(), "link", link, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if t.store != nil {
			t.store.Put(key, out)
		}
		return Result{Text: out, Provenance: news.ProvenanceTranslated, Provider: p.Name()}
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no translation provider configured"))
	}
	original.Err = news.NewStageError(news.KindTranslationFailure, "translate", link, errors.Join(errs...))
	return original
}

func (t *Translator) call(ctx context.Context, p Provider, text, from string) (string, error) {
	if t.limiter != nil {
		if err := t.limiter.Acquire(ctx, p.Name()); err != nil {
			return "", err
		}
	}
	out, err := p.Translate(ctx, text, from, t.target)
	if err != nil {
		return "", err
	}
	out = SanitizeAIText(out)
	if out == "" || out == text {
		return "", errors.New("empty or unchanged translation")
	}
	return out, nil
}
