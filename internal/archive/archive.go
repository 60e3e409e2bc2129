package archive

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/prosaic-dev/prosaic/internal/domain"
)

const (
	// MaxBatchSize is the maximum number of suggestions per index batch.
	MaxBatchSize = 100

	// DefaultMaxResults bounds a search when the caller does not set a
	// limit.
	DefaultMaxResults = 20
)

// Archive is a persistent, searchable store of past review suggestions.
type Archive struct {
	index bleve.Index
}

// createIndexMapping builds the Bleve mapping for archived suggestions.
func createIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Reason and text fields are analyzed for full-text search.
	reasonField := bleve.NewTextFieldMapping()
	reasonField.Analyzer = standard.Name
	reasonField.Store = true
	docMapping.AddFieldMappingsAt(domain.SuggestionFieldReason, reasonField)

	originalField := bleve.NewTextFieldMapping()
	originalField.Analyzer = standard.Name
	originalField.Store = true
	docMapping.AddFieldMappingsAt(domain.SuggestionFieldOriginal, originalField)

	suggestedField := bleve.NewTextFieldMapping()
	suggestedField.Analyzer = standard.Name
	suggestedField.Store = true
	docMapping.AddFieldMappingsAt(domain.SuggestionFieldSuggested, suggestedField)

	// File and category are exact-match filters.
	fileField := bleve.NewTextFieldMapping()
	fileField.Analyzer = keyword.Name
	fileField.Store = true
	docMapping.AddFieldMappingsAt(domain.SuggestionFieldFile, fileField)

	categoryField := bleve.NewTextFieldMapping()
	categoryField.Analyzer = keyword.Name
	categoryField.Store = true
	docMapping.AddFieldMappingsAt(domain.SuggestionFieldCategory, categoryField)

	lineField := bleve.NewNumericFieldMapping()
	lineField.Store = true
	docMapping.AddFieldMappingsAt(domain.SuggestionFieldLine, lineField)

	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.SuggestionFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Open opens the archive at path, creating it on first use.
func Open(path string) (*Archive, error) {
	index, err := bleve.Open(path)
	if err == nil {
		return &Archive{index: index}, nil
	}

	index, err = bleve.New(path, createIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create archive index: %w", err)
	}
	return &Archive{index: index}, nil
}

// Add stores suggestions in the archive. The document ID is derived from
// file, line and original text, so re-archiving the same run overwrites
// rather than duplicates.
func (a *Archive) Add(suggestions []domain.Suggestion) error {
	batch := a.index.NewBatch()
	batchSize := 0

	for _, s := range suggestions {
		doc := domain.NewArchivedSuggestion(s)
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to batch suggestion: %w", err)
		}
		batchSize++

		if batchSize >= MaxBatchSize {
			if err := a.index.Batch(batch); err != nil {
				return fmt.Errorf("batch index failed: %w", err)
			}
			batch = a.index.NewBatch()
			batchSize = 0
		}
	}

	if batchSize > 0 {
		if err := a.index.Batch(batch); err != nil {
			return fmt.Errorf("final batch index failed: %w", err)
		}
	}
	return nil
}

// Query describes an archive search.
type Query struct {
	// Text is matched against reason, original and suggested text.
	Text string

	// File filters hits to an exact file path. Optional.
	File string

	// Category filters hits to "Style" or "Grammar". Optional.
	Category string

	// MaxResults bounds the number of hits. Zero means
	// DefaultMaxResults.
	MaxResults int
}

// Hit is a single archived suggestion returned from a search.
type Hit struct {
	ID        string
	File      string
	Line      int
	Category  string
	Reason    string
	Original  string
	Suggested string
	Score     float64
}

// Search runs a full-text query over the archive.
func (a *Archive) Search(q Query) ([]Hit, uint64, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, fmt.Errorf("query text cannot be empty")
	}
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultMaxResults
	}

	searchReq := bleve.NewSearchRequest(buildQuery(q))
	searchReq.Size = q.MaxResults
	searchReq.Fields = []string{
		domain.SuggestionFieldFile,
		domain.SuggestionFieldLine,
		domain.SuggestionFieldCategory,
		domain.SuggestionFieldReason,
		domain.SuggestionFieldOriginal,
		domain.SuggestionFieldSuggested,
	}

	results, err := a.index.Search(searchReq)
	if err != nil {
		return nil, 0, fmt.Errorf("archive search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if val, ok := h.Fields[domain.SuggestionFieldFile].(string); ok {
			hit.File = val
		}
		if val, ok := h.Fields[domain.SuggestionFieldLine].(float64); ok {
			hit.Line = int(val)
		}
		if val, ok := h.Fields[domain.SuggestionFieldCategory].(string); ok {
			hit.Category = val
		}
		if val, ok := h.Fields[domain.SuggestionFieldReason].(string); ok {
			hit.Reason = val
		}
		if val, ok := h.Fields[domain.SuggestionFieldOriginal].(string); ok {
			hit.Original = val
		}
		if val, ok := h.Fields[domain.SuggestionFieldSuggested].(string); ok {
			hit.Suggested = val
		}
		hits = append(hits, hit)
	}

	return hits, results.Total, nil
}

// buildQuery constructs a Bleve query from a Query value.
func buildQuery(q Query) query.Query {
	reasonQuery := bleve.NewMatchQuery(q.Text)
	reasonQuery.SetField(domain.SuggestionFieldReason)

	originalQuery := bleve.NewMatchQuery(q.Text)
	originalQuery.SetField(domain.SuggestionFieldOriginal)

	suggestedQuery := bleve.NewMatchQuery(q.Text)
	suggestedQuery.SetField(domain.SuggestionFieldSuggested)

	textQuery := bleve.NewDisjunctionQuery(reasonQuery, originalQuery, suggestedQuery)

	if q.File == "" && q.Category == "" {
		return textQuery
	}

	must := []query.Query{textQuery}

	if q.File != "" {
		fileQuery := bleve.NewTermQuery(q.File)
		fileQuery.SetField(domain.SuggestionFieldFile)
		must = append(must, fileQuery)
	}
	if q.Category != "" {
		categoryQuery := bleve.NewTermQuery(q.Category)
		categoryQuery.SetField(domain.SuggestionFieldCategory)
		must = append(must, categoryQuery)
	}

	return bleve.NewConjunctionQuery(must...)
}

// Count returns the number of archived suggestions.
func (a *Archive) Count() (uint64, error) {
	return a.index.DocCount()
}

// Close releases the underlying index.
func (a *Archive) Close() error {
	return a.index.Close()
}
