package index

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

// MixedAnalyzerName is the custom analyzer wired to the "mixed" tokenizer.
const MixedAnalyzerName = "mixed_analyzer"

const (
	fieldName = "name"
	fieldPath = "path"
)

func init() {
	_ = registry.RegisterTokenizer(MixedTokenizerName, mixedTokenizerConstructor)
}

// mixedTokenizerConstructor adapts Tokenize to bleve's analysis.Tokenizer.
func mixedTokenizerConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.Tokenizer, error) {
	return mixedTokenizer{}, nil
}

type mixedTokenizer struct{}

func (mixedTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	toks := Tokenize(text)
	stream := make(analysis.TokenStream, 0, len(toks))
	for i, tok := range toks {
		stream = append(stream, &analysis.Token{
			Term:     []byte(tok.Text),
			Start:    tok.Start,
			End:      tok.End,
			Position: i + 1,
			Type:     analysis.AlphaNumeric,
		})
	}
	return stream
}

// buildIndexMapping constructs the fixed two-field schema: name (text,
// "mixed" tokenizer, positions indexed, not stored) and path (keyword,
// indexed for exact match, stored for retrieval).
func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	err := im.AddCustomAnalyzer(MixedAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": MixedTokenizerName,
	})
	if err != nil {
		return nil, err
	}

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = MixedAnalyzerName
	nameField.Store = false
	nameField.IncludeInAll = false
	nameField.IncludeTermVectors = true // positions, for phrase/proximity scoring

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	pathField.IncludeInAll = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(fieldName, nameField)
	docMapping.AddFieldMappingsAt(fieldPath, pathField)
	docMapping.Dynamic = false

	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = MixedAnalyzerName
	im.TypeField = "_type"
	im.DefaultType = "_default"
	im.IndexDynamic = false
	im.StoreDynamic = false

	return im, nil
}

// document is the shape indexed for every entry: name drives the search,
// path is the entry's identity.
type document struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// displayNameFromPath derives the indexable name by splitting on "/" from
// the right and taking the first non-empty component, matching add_one.
func displayNameFromPath(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return path
	}
	idx := strings.LastIndex(trimmed, "/")
	if idx == -1 {
		return trimmed
	}
	return trimmed[idx+1:]
}
