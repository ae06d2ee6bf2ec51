package index

import (
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/cjk"
)

// hanAnalyzerName is bleve's bundled CJK analyzer: Unicode tokenization,
// lowercasing, width normalization, and bigram segmentation. Reused here
// rather than writing a dictionary segmenter from scratch, since it is
// already a transitive dependency of the bleve-backed Index Store.
const hanAnalyzerName = "cjk"

var (
	cjkOnce    sync.Once
	cjkAnalyze analysis.Analyzer
)

// cjkAnalyzer lazily resolves bleve's registered "cjk" analyzer from the
// shared config cache.
func cjkAnalyzer() analysis.Analyzer {
	cjkOnce.Do(func() {
		a, err := bleve.Config.Cache.AnalyzerNamed(hanAnalyzerName)
		if err != nil {
			panic("index: cjk analyzer unavailable: " + err.Error())
		}
		cjkAnalyze = a
	})
	return cjkAnalyze
}
