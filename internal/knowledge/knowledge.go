package knowledge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	chunkSize    = 512
	chunkOverlap = 50
)

// NotFound is the answer given when nothing in the knowledge base matches.
const NotFound = "No relevant information found in the knowledge base."

// Chunk is a searchable slice of a knowledge document.
type Chunk struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Score  int    `json:"score,omitempty"`
}

// Base is an in-memory keyword index over markdown and text documents.
type Base struct {
	mu     sync.RWMutex
	chunks []Chunk
	docs   int
	logger *zap.Logger
}

func New(logger *zap.Logger) *Base {
	return &Base{logger: logger}
}

// Load replaces the index with the .md and .txt files under dir. A missing
// directory leaves the base empty.
func (b *Base) Load(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		b.logger.Warn("knowledge base path does not exist", zap.String("path", dir))
		b.replace(nil, 0)
		return nil
	}

	var (
		chunks []Chunk
		docs   int
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			b.logger.Error("failed to read knowledge file", zap.String("path", path), zap.Error(err))
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		for _, text := range split(string(data)) {
			chunks = append(chunks, Chunk{Source: rel, Text: text})
		}
		docs++
		b.logger.Debug("loaded knowledge file", zap.String("file", rel))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}

	b.replace(chunks, docs)
	b.logger.Info("knowledge base loaded",
		zap.Int("documents", docs),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// Add indexes a single document held in memory.
func (b *Base) Add(source, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, text := range split(content) {
		b.chunks = append(b.chunks, Chunk{Source: source, Text: text})
	}
	b.docs++
}

func (b *Base) replace(chunks []Chunk, docs int) {
	b.mu.Lock()
	b.chunks = chunks
	b.docs = docs
	b.mu.Unlock()
}

// Documents returns the number of indexed documents.
func (b *Base) Documents() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.docs
}

// Search returns up to limit chunks ranked by how many query keywords they
// contain. Ties keep index order.
func (b *Base) Search(query string, limit int) []Chunk {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil
	}

	b.mu.RLock()
	var hits []Chunk
	for _, c := range b.chunks {
		text := strings.ToLower(c.Text)
		score := 0
		for _, k := range keywords {
			if strings.Contains(text, k) {
				score++
			}
		}
		if score > 0 {
			c.Score = score
			hits = append(hits, c)
		}
	}
	b.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Answer renders the top matches for query as one block of text.
func (b *Base) Answer(query string, limit int) string {
	hits := b.Search(query, limit)
	if len(hits) == 0 {
		return NotFound
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, "\n\n")
}

// split breaks content into paragraph-aligned chunks of roughly chunkSize
// runes, carrying chunkOverlap runes of context into the next chunk.
func split(content string) []string {
	var pieces [][]rune
	for _, p := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n") {
		runes := []rune(strings.TrimSpace(p))
		for len(runes) > chunkSize {
			pieces = append(pieces, runes[:chunkSize])
			runes = runes[chunkSize:]
		}
		if len(runes) > 0 {
			pieces = append(pieces, runes)
		}
	}

	var (
		chunks  []string
		current []rune
		fresh   bool
	)
	flush := func() {
		if fresh {
			chunks = append(chunks, strings.TrimSpace(string(current)))
		}
		fresh = false
		if len(current) > chunkOverlap {
			current = append([]rune{}, current[len(current)-chunkOverlap:]...)
		}
	}

	for _, piece := range pieces {
		if fresh && len(current)+2+len(piece) > chunkSize {
			flush()
		}
		if len(current) > 0 {
			current = append(current, '\n', '\n')
		}
		current = append(current, piece...)
		fresh = true
	}
	flush()
	return chunks
}
