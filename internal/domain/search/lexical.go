package search

import "strings"

// ParsePhrases splits free lexical query text into required phrases and
// optional terms. Phrases enclosed in double quotes become required
// (conjunctive) phrases; everything else is split on whitespace into optional
// (disjunctive) terms. Quotes must be delimited by spaces or the ends of the
// text; `\"` is read as a literal quote. If any quote is neither opening,
// closing, nor escaped, or a quote is left open, the whole text is
// interpreted literally as optional terms.
func ParsePhrases(text string) (required, optional []string) {
	var optionalBlob string
	openingQuote := -1

	for i := 0; i < len(text); i++ {
		optionalBlob += string(text[i])

		if text[i] != '"' {
			continue
		}
		switch {
		case i > 0 && text[i-1] == '\\':
			// escaped quote, read literally
		case openingQuote >= 0 && (i == len(text)-1 || text[i+1] == ' '):
			term := text[openingQuote+1 : i]
			required = append(required, term)
			optionalBlob = optionalBlob[:len(optionalBlob)-(len(term)+2)]
			openingQuote = -1
		case i == 0 || text[i-1] == ' ':
			openingQuote = i
		default:
			return nil, strings.Fields(text)
		}
	}

	if openingQuote >= 0 {
		// parsing finished with a quote still open
		return nil, strings.Fields(text)
	}

	optional = strings.Fields(optionalBlob)
	for i := range required {
		required[i] = strings.ReplaceAll(required[i], `\"`, `"`)
	}
	for i := range optional {
		optional[i] = strings.ReplaceAll(optional[i], `\"`, `"`)
	}
	return required, optional
}
