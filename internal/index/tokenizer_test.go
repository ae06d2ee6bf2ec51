package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tokenTexts(toks []MixedToken) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestIsHanScript(t *testing.T) {
	assert.True(t, IsHanScript("报告.pdf"))
	assert.False(t, IsHanScript("report.pdf"))
	assert.False(t, IsHanScript("file123"))
}

func TestTokenizeLatin_CamelCase(t *testing.T) {
	toks := Tokenize("getUserById.go")
	assert.Equal(t, []string{"get", "user", "by", "id", "go"}, tokenTexts(toks))
}

func TestTokenizeLatin_SnakeCase(t *testing.T) {
	toks := Tokenize("my_report_final.txt")
	assert.Equal(t, []string{"my", "report", "final", "txt"}, tokenTexts(toks))
}

func TestTokenizeLatin_Acronym(t *testing.T) {
	toks := Tokenize("parseHTTPRequest")
	assert.Equal(t, []string{"parse", "http", "request"}, tokenTexts(toks))
}

func TestTokenizeLatin_KeepsShortTokens(t *testing.T) {
	toks := Tokenize("go")
	assert.Equal(t, []string{"go"}, tokenTexts(toks))
}

func TestTokenizeLatin_SplitsOnSpaceInOrder(t *testing.T) {
	toks := Tokenize("foo bar")
	assert.Len(t, toks, 2)
	assert.Equal(t, "foo", toks[0].Text)
	assert.Equal(t, 0, toks[0].Start)
	assert.Equal(t, "bar", toks[1].Text)
}

func TestTokenizeHan_ProducesNonEmptyStream(t *testing.T) {
	toks := Tokenize("北京市朝阳区")
	assert.NotEmpty(t, toks)
	for _, tok := range toks {
		assert.NotEmpty(t, tok.Text)
	}
}

func TestTokenizeHan_MixedWithLatinDefaultsToHanPath(t *testing.T) {
	toks := Tokenize("报告report.pdf")
	assert.NotEmpty(t, toks)
}
