package index

import (
	"regexp"
	"strings"
	"unicode"
)

// MixedTokenizerName is the name the "mixed" tokenizer is registered under
// in bleve's registry.
const MixedTokenizerName = "mixed_tokenizer"

// latinTokenRegex matches runs of Unicode letters, digits, and underscores,
// the unit SplitCamelCase further decomposes.
var latinTokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// MixedToken is a single token produced by Tokenize, carrying the text and
// byte offsets needed to drive a bleve analysis.Token.
type MixedToken struct {
	Text  string
	Start int
	End   int
}

// Tokenize implements the "mixed" algorithm: detect script, then dispatch
// to a CJK segmenter or a camelCase/snake_case-aware Latin splitter. The
// same function runs at index time and query time, which the design
// requires for correctness.
func Tokenize(text string) []MixedToken {
	if IsHanScript(text) {
		return tokenizeHan(text)
	}
	return tokenizeLatin(text)
}

// IsHanScript reports whether text contains at least one Han-script rune.
// Pure-ASCII strings (including ones with digits) default to the Latin
// path, matching the tie-break rule for ambiguous detection.
func IsHanScript(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// tokenizeLatin splits on whitespace/punctuation, then further splits each
// run on camelCase and snake_case boundaries, lowercasing every token.
// Unlike a general-purpose code tokenizer, no minimum-length or stop-word
// filter is applied: file names need exact substring behavior, and a
// two-character name like "go" must remain searchable.
func tokenizeLatin(text string) []MixedToken {
	var tokens []MixedToken

	for _, loc := range latinTokenRegex.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		offset := loc[0]

		for _, sub := range splitCodeToken(word) {
			start := strings.Index(word, sub)
			if start == -1 {
				start = 0
			}
			tokens = append(tokens, MixedToken{
				Text:  strings.ToLower(sub),
				Start: offset + start,
				End:   offset + start + len(sub),
			})
		}
	}

	return tokens
}

// tokenizeHan segments Han-script text using bleve's bundled CJK analyzer,
// which applies bigram segmentation appropriate for whitespace-free scripts.
func tokenizeHan(text string) []MixedToken {
	stream := cjkAnalyzer().Analyze([]byte(text))
	tokens := make([]MixedToken, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, MixedToken{
			Text:  string(tok.Term),
			Start: tok.Start,
			End:   tok.End,
		})
	}
	return tokens
}

// splitCodeToken splits snake_case first, then camelCase within each part.
func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

// splitCamelCase splits camelCase and PascalCase identifiers, keeping
// acronym runs together: "parseHTTPRequest" -> ["parse", "HTTP", "Request"].
func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}
