package embed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/text/unicode/norm"
)

// ChunkOptions controls how text is split before embedding.
// Size and Overlap are measured in characters.
type ChunkOptions struct {
	Size       int
	Overlap    int
	Separators []string
}

func (o ChunkOptions) validate() error {
	if o.Size <= 0 || o.Overlap < 0 || o.Overlap >= o.Size {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunkOptions, o.Size, o.Overlap)
	}
	return nil
}

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	blankLines      = regexp.MustCompile(`\n\s*\n+`)
)

// Normalize applies NFKC normalization and collapses whitespace: runs of
// spaces and tabs become one space, lines are trimmed, and runs of blank
// lines become a single newline. Line breaks survive so that the default
// "\n" separator still finds boundaries.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = horizontalSpace.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n"))
}

// Split cuts text into chunks of at most opts.Size characters.
// Separators are tried in order; the empty separator is always appended
// last so that a single line longer than Size is cut by characters.
// Empty chunks are dropped.
func Split(text string, opts ChunkOptions) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	separators := make([]string, 0, len(opts.Separators)+1)
	for _, s := range opts.Separators {
		if s != "" {
			separators = append(separators, s)
		}
	}
	separators = append(separators, "")

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(opts.Size),
		textsplitter.WithChunkOverlap(opts.Overlap),
		textsplitter.WithSeparators(separators),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	result := chunks[:0]
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			result = append(result, c)
		}
	}
	return result, nil
}
