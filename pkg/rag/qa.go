// Package rag answers free-text questions from a FAQ document: the document is
// split, embedded and kept in memory, and the closest chunks are stuffed into
// a single prompt for the language model.
package rag

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const stuffPrompt = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%CONTEXT%

Question: %QUESTION%
Helpful Answer:`

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, question string) (string, bool, error)
	Set(ctx context.Context, question, answer string) error
}

type Config struct {
	FAQPath      string `envconfig:"FAQ_PATH" default:"faq.txt"`
	Watch        bool   `envconfig:"FAQ_WATCH" default:"false"`
	TopK         int    `envconfig:"RAG_TOP_K" default:"4"`
	ChunkSize    int    `envconfig:"RAG_CHUNK_SIZE" default:"1000"`
	ChunkOverlap int    `envconfig:"RAG_CHUNK_OVERLAP" default:"200"`
	EmbedWorkers int    `envconfig:"RAG_EMBED_WORKERS" default:"4"`
}

// QA builds its index on first use and keeps it until Reset.
type QA struct {
	cfg      Config
	splitter Splitter
	embedder Embedder
	llm      Generator
	cache    Cache
	log      *zap.Logger

	mu    sync.Mutex
	store *Store
}

func NewQA(cfg Config, embedder Embedder, llm Generator, cache Cache, log *zap.Logger) *QA {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.EmbedWorkers <= 0 {
		cfg.EmbedWorkers = 1
	}
	return &QA{
		cfg:      cfg,
		splitter: NewSplitter("\n\n", cfg.ChunkSize, cfg.ChunkOverlap),
		embedder: embedder,
		llm:      llm,
		cache:    cache,
		log:      log.Named("rag"),
	}
}

func (q *QA) Answer(ctx context.Context, question string) (string, error) {
	if q.cache != nil {
		answer, ok, err := q.cache.Get(ctx, question)
		if err != nil {
			q.log.Warn("cache get", zap.Error(err))
		} else if ok {
			return answer, nil
		}
	}

	store, err := q.index(ctx)
	if err != nil {
		return "", err
	}
	vec, err := q.embedder.Embed(ctx, question)
	if err != nil {
		return "", errors.Wrap(err, "embed question")
	}
	results := store.Search(vec, q.cfg.TopK)

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Content
	}
	prompt := strings.NewReplacer(
		"%CONTEXT%", strings.Join(parts, "\n\n"),
		"%QUESTION%", question,
	).Replace(stuffPrompt)

	answer, err := q.llm.Generate(ctx, "", prompt)
	if err != nil {
		return "", errors.Wrap(err, "generate answer")
	}
	answer = strings.TrimSpace(answer)

	if q.cache != nil {
		if err := q.cache.Set(ctx, question, answer); err != nil {
			q.log.Warn("cache set", zap.Error(err))
		}
	}
	return answer, nil
}

// Reset drops the cached index; the next question rebuilds it.
func (q *QA) Reset() {
	q.mu.Lock()
	q.store = nil
	q.mu.Unlock()
	q.log.Info("faq index dropped")
}

func (q *QA) index(ctx context.Context) (*Store, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.store != nil {
		return q.store, nil
	}
	store, err := q.build(ctx)
	if err != nil {
		return nil, err
	}
	q.store = store
	return store, nil
}

func (q *QA) build(ctx context.Context) (*Store, error) {
	data, err := os.ReadFile(q.cfg.FAQPath)
	if err != nil {
		return nil, errors.Wrap(err, "read faq")
	}
	texts := q.splitter.Split(string(data))

	chunks := make([]Chunk, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.cfg.EmbedWorkers)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vec, err := q.embedder.Embed(gctx, text)
			if err != nil {
				return errors.Wrapf(err, "embed chunk %d", i)
			}
			chunks[i] = Chunk{Index: i, Content: text, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	q.log.Info("faq index built", zap.String("path", q.cfg.FAQPath), zap.Int("chunks", len(chunks)))
	return NewStore(chunks), nil
}
