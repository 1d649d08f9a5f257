// Package assets holds data embedded into the server binary.
package assets

import (
	_ "embed"
)

// WordsTSV is the default word corpus: one "WORD<TAB>part_of_speech<TAB>definition"
// entry per line, "#" starts a comment.
//
//go:embed words.tsv
var WordsTSV string
