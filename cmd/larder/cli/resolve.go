package cli

import (
	"fmt"
	"strings"

	"larder/internal/catalog"
)

// resolveToken maps a CLI argument to a catalogued token: an exact
// token, a unique token prefix, or a unique entry name
// (case-insensitive). Tokens win over names so a name that happens to
// look like a token prefix cannot shadow one.
func resolveToken(entries map[string]catalog.Entry, arg string) (string, error) {
	if _, ok := entries[arg]; ok {
		return arg, nil
	}

	var matches []string
	for tok := range entries {
		if strings.HasPrefix(tok, arg) {
			matches = append(matches, tok)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("token prefix %q is ambiguous (%d matches)", arg, len(matches))
	}

	for tok, e := range entries {
		if strings.EqualFold(e.Name, arg) {
			matches = append(matches, tok)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("name %q is ambiguous (%d matches)", arg, len(matches))
	}
	return "", fmt.Errorf("no persisted source matches %q", arg)
}
