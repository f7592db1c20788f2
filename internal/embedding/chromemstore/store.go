// Package chromemstore persists user embeddings with chromem-go, an
// embedded pure-Go vector database.
//
// The in-memory map remains the runtime source of truth; every write
// goes through to disk so embeddings survive a process restart. The
// caller recovers state with Warm, supplying the user ids it knows
// about (user persistence itself lives outside the core).
package chromemstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/embedding"
)

// Config holds configuration for the chromem-backed embedding store.
type Config struct {
	// Path is the directory for persistent storage.
	Path string `koanf:"path"`

	// Collection is the chromem collection name.
	// Default: "decisiond_embeddings"
	Collection string `koanf:"collection"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "decisiond_embeddings"
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path required")
	}
	return nil
}

// Store implements embedding.Store with write-through persistence.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger

	mu   sync.RWMutex
	byID map[string]embedding.UserEmbedding
}

// docMeta is the JSON payload stored as document content. The vector
// itself lives in the chromem embedding slot.
type docMeta struct {
	UserID           string                          `json:"user_id"`
	GeneratedAt      time.Time                       `json:"generated_at"`
	Version          int                             `json:"version"`
	Confidence       float64                         `json:"confidence"`
	ComponentWeights map[embedding.Component]float64 `json:"component_weights"`
}

// New creates a Store persisting under config.Path.
func New(config Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", config.Path, err)
	}

	db, err := chromem.NewPersistentDB(config.Path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	// No embedding function: vectors are always supplied explicitly.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, func(_ context.Context, _ string) ([]float32, error) {
		return nil, fmt.Errorf("text embedding not supported for user embeddings")
	})
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", config.Collection, err)
	}

	return &Store{
		db:         db,
		collection: collection,
		logger:     logger,
		byID:       make(map[string]embedding.UserEmbedding),
	}, nil
}

// Warm loads persisted embeddings for the given user ids into memory.
// Unknown ids are skipped silently; corrupt documents are skipped with
// a warning.
func (s *Store) Warm(ctx context.Context, userIDs []string) int {
	loaded := 0
	for _, id := range userIDs {
		doc, err := s.collection.GetByID(ctx, id)
		if err != nil {
			continue
		}
		var meta docMeta
		if err := json.Unmarshal([]byte(doc.Content), &meta); err != nil {
			s.logger.Warn("skipping corrupt persisted embedding",
				zap.String("user_id", id),
				zap.Error(err),
			)
			continue
		}
		vector := make([]float64, len(doc.Embedding))
		for i, v := range doc.Embedding {
			vector[i] = float64(v)
		}
		s.mu.Lock()
		s.byID[id] = embedding.UserEmbedding{
			UserID:           meta.UserID,
			Vector:           vector,
			GeneratedAt:      meta.GeneratedAt,
			Version:          meta.Version,
			Confidence:       meta.Confidence,
			ComponentWeights: meta.ComponentWeights,
		}
		s.mu.Unlock()
		loaded++
	}
	s.logger.Info("warmed embedding store",
		zap.Int("requested", len(userIDs)),
		zap.Int("loaded", loaded),
	)
	return loaded
}

// Put stores the embedding in memory and writes it through to disk.
// A persistence failure is logged, not surfaced: the in-memory copy
// stays authoritative for this process.
func (s *Store) Put(e embedding.UserEmbedding) error {
	s.mu.Lock()
	s.byID[e.UserID] = e
	s.mu.Unlock()

	content, err := json.Marshal(docMeta{
		UserID:           e.UserID,
		GeneratedAt:      e.GeneratedAt,
		Version:          e.Version,
		Confidence:       e.Confidence,
		ComponentWeights: e.ComponentWeights,
	})
	if err != nil {
		return fmt.Errorf("marshaling embedding metadata: %w", err)
	}

	vector := make([]float32, len(e.Vector))
	for i, v := range e.Vector {
		vector[i] = float32(v)
	}

	err = s.collection.AddDocuments(context.Background(), []chromem.Document{{
		ID:        e.UserID,
		Embedding: vector,
		Content:   string(content),
		Metadata: map[string]string{
			"version": strconv.Itoa(e.Version),
		},
	}}, 1)
	if err != nil {
		s.logger.Warn("failed to persist embedding",
			zap.String("user_id", e.UserID),
			zap.Error(err),
		)
	}
	return nil
}

// Get returns the user's embedding, or false when absent.
func (s *Store) Get(userID string) (embedding.UserEmbedding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[userID]
	return e, ok
}

// All returns every in-memory embedding.
func (s *Store) All() []embedding.UserEmbedding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]embedding.UserEmbedding, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	return out
}

// Delete removes the user's embedding from memory and disk.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	delete(s.byID, userID)
	s.mu.Unlock()

	if err := s.collection.Delete(context.Background(), nil, nil, userID); err != nil {
		s.logger.Warn("failed to delete persisted embedding",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// Len returns the number of in-memory embeddings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
