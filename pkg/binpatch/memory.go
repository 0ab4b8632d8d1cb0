package binpatch

import "bytes"

// Options configure how a substitution is applied for both file backed and
// in-memory patching.
type Options struct {
	// ReplaceAll replaces every non-overlapping occurrence, scanning left to
	// right, instead of only the first one.
	ReplaceAll bool
}

// Result describes the outcome of a successful substitution.
type Result struct {
	Path string `json:"path,omitempty"`
	// Offsets lists the positions in the original content where a match was
	// replaced, in ascending order.
	Offsets    []int `json:"offsets"`
	SearchLen  int   `json:"searchLen"`
	ReplaceLen int   `json:"replaceLen"`
	SizeBefore int   `json:"sizeBefore"`
	SizeAfter  int   `json:"sizeAfter"`
}

// PatchBytes decodes both hex patterns and applies the substitution to a copy
// of content. The input slice is never modified.
func PatchBytes(content []byte, searchHex, replaceHex string, opts Options) ([]byte, Result, error) {
	search, replace, err := decodeRequest(searchHex, replaceHex)
	if err != nil {
		return nil, Result{}, err
	}
	patched, result, ok := substitute(content, search, replace, opts)
	if !ok {
		return nil, Result{}, &PatternNotFoundError{Search: search}
	}
	return patched, result, nil
}

func decodeRequest(searchHex, replaceHex string) ([]byte, []byte, error) {
	search, err := decodeNamedPattern("search", searchHex)
	if err != nil {
		return nil, nil, err
	}
	replace, err := decodeNamedPattern("replace", replaceHex)
	if err != nil {
		return nil, nil, err
	}
	return search, replace, nil
}

// substitute builds a fresh buffer with the replacement applied. It reports
// false when search does not occur in content.
func substitute(content, search, replace []byte, opts Options) ([]byte, Result, bool) {
	first := bytes.Index(content, search)
	if len(search) == 0 || first < 0 {
		return nil, Result{}, false
	}

	offsets := []int{first}
	if opts.ReplaceAll {
		for cursor := first + len(search); cursor <= len(content)-len(search); {
			next := bytes.Index(content[cursor:], search)
			if next < 0 {
				break
			}
			offsets = append(offsets, cursor+next)
			cursor += next + len(search)
		}
	}

	size := len(content) + len(offsets)*(len(replace)-len(search))
	out := make([]byte, 0, size)
	prev := 0
	for _, offset := range offsets {
		out = append(out, content[prev:offset]...)
		out = append(out, replace...)
		prev = offset + len(search)
	}
	out = append(out, content[prev:]...)

	return out, Result{
		Offsets:    offsets,
		SearchLen:  len(search),
		ReplaceLen: len(replace),
		SizeBefore: len(content),
		SizeAfter:  len(out),
	}, true
}
