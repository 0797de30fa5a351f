package describe

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/phobologic/talondoc/internal/docstring"
)

var returnsRe = regexp.MustCompile(`(?i)^returns?\s`)

// Compile turns an action description into a Desc:
//
//   - a description opening with "Returns ..." becomes a Chunk of its first
//     line, used verbatim whatever the arguments;
//   - otherwise the docstring is parsed into a Template of its short
//     description and parameter names;
//   - an unparseable docstring degrades to a Line of its first line.
//
// It returns nil when there is nothing to describe.
func Compile(text string, logger *slog.Logger) Desc {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)

	if returnsRe.MatchString(first) {
		return Chunk{Text: first}
	}

	doc, err := docstring.Parse(text)
	if err != nil {
		if logger != nil {
			logger.Warn("unparseable docstring", "error", err)
		}
		return Line{Text: first}
	}
	if doc.Short == "" {
		return nil
	}
	return Template{Text: doc.Short, Params: doc.ParamNames()}
}
