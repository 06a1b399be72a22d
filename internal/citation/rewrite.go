// Package citation turns inline annotation spans in an assistant response
// into numbered markers with a footnote list of source filenames.
package citation

import (
	"fmt"
	"strings"

	"github.com/bookrook/bookrook-backend/internal"
)

// Resolver maps a remote file ID to its filename.
type Resolver func(fileID string) (string, error)

// Rewrite replaces each annotated span in text with the marker "[i]", where
// i is the annotation's position in annotation order, and collects one
// footnote per file-citation annotation ("[i] <filename>", insertion order,
// not deduplicated by filename).
//
// Replacement is best-effort and never fails: when the service supplied
// byte offsets that still line up with the mutated text they are used
// directly; otherwise the first occurrence of the span is replaced. A span
// that no longer occurs (for example after an earlier replacement consumed
// it) is skipped silently. Replacements are strictly order-dependent: later
// annotations act on the text already mutated by earlier ones.
func Rewrite(text string, annotations []internal.Annotation, resolve Resolver) (string, []string) {
	citations := make([]string, 0, len(annotations))

	// shift tracks how much earlier offset-based replacements have moved
	// the text relative to the original offsets.
	shift := 0
	for i, ann := range annotations {
		marker := fmt.Sprintf("[%d]", i)
		if s, e, ok := shiftedSpan(text, ann, shift); ok {
			text = text[:s] + marker + text[e:]
			shift += len(marker) - (e - s)
		} else if ann.Span != "" {
			if idx := strings.Index(text, ann.Span); idx >= 0 {
				text = text[:idx] + marker + text[idx+len(ann.Span):]
			}
			// Not found: leave the text alone for this annotation.
		}

		if ann.FileCitation != nil {
			label := ann.FileCitation.FileID
			if resolve != nil {
				if name, err := resolve(ann.FileCitation.FileID); err == nil && name != "" {
					label = name
				}
			}
			citations = append(citations, fmt.Sprintf("%s %s", marker, label))
		}
	}
	return text, citations
}

// shiftedSpan validates an annotation's original offsets against the
// current text and returns them adjusted for earlier replacements. ok is
// false when offsets are absent or no longer match the annotated span.
func shiftedSpan(text string, ann internal.Annotation, shift int) (int, int, bool) {
	if ann.End <= ann.Start || ann.Start < 0 {
		return 0, 0, false
	}
	s, e := ann.Start+shift, ann.End+shift
	if s < 0 || e > len(text) || s >= e {
		return 0, 0, false
	}
	if ann.Span != "" && text[s:e] != ann.Span {
		return 0, 0, false
	}
	return s, e, true
}
