package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/renutil/rensweep/internal/config"
)

// Pattern is one compiled reference pattern applied to every script line.
type Pattern struct {
	// Name identifies the pattern in debug logs.
	Name string

	// re is the compiled expression.
	re *regexp.Regexp

	// group is the capture group holding the reference.
	group int

	// multiWord emits cumulative word prefixes of the capture in
	// addition to the full capture. Ren'Py image names may span several
	// words ("eileen happy"), and a show statement does not mark where
	// the name ends and the attributes begin.
	multiWord bool
}

// statementTerminators end the image-name portion of a show/scene
// statement. Words from this list onward are clause keywords, not image
// name attributes.
var statementTerminators = map[string]bool{
	"at":         true,
	"with":       true,
	"behind":     true,
	"as":         true,
	"onlayer":    true,
	"zorder":     true,
	"expression": true,
}

// builtinPatterns returns the default pattern table.
// The table mirrors the reference syntaxes of Ren'Py scripts:
//
//	show eileen happy
//	scene bg room with dissolve
//	image logo = "gui/logo.png"
//
// Quoted path literals (including imagebutton/add declarations) are
// handled separately by the literal scanner, not by this table.
func builtinPatterns(caseSensitive bool) []Pattern {
	flags := "(?i)"
	if caseSensitive {
		flags = ""
	}

	return []Pattern{
		{
			Name:      "show_scene",
			re:        regexp.MustCompile(flags + `^\s*(?:show|scene)\s+([\w/-]+(?:[ \t]+[\w/-]+)*)`),
			group:     1,
			multiWord: true,
		},
		{
			Name:      "image_definition",
			re:        regexp.MustCompile(flags + `^\s*image\s+([\w/-]+(?:[ \t]+[\w/-]+)*)\s*=`),
			group:     1,
			multiWord: true,
		},
	}
}

// compileUserPatterns compiles patterns from the configuration file.
// A broken user pattern is a configuration error, so compilation failures
// are returned rather than skipped.
func compileUserPatterns(configs []config.PatternConfig, caseSensitive bool) ([]Pattern, error) {
	flags := "(?i)"
	if caseSensitive {
		flags = ""
	}

	patterns := make([]Pattern, 0, len(configs))
	for _, pc := range configs {
		re, err := regexp.Compile(flags + pc.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pc.Name, err)
		}
		group := pc.Group
		if group <= 0 {
			group = 1
		}
		if group >= re.NumSubexp()+1 {
			return nil, fmt.Errorf("invalid pattern %q: capture group %d does not exist", pc.Name, group)
		}
		patterns = append(patterns, Pattern{Name: pc.Name, re: re, group: group})
	}
	return patterns, nil
}

// expand returns the raw reference strings for one match.
// For multi-word patterns it emits every cumulative word prefix up to the
// first clause terminator: "eileen happy at left" yields "eileen" and
// "eileen happy". Emitting every prefix over-matches on purpose.
func (p Pattern) expand(capture string) []string {
	capture = strings.TrimSpace(capture)
	if capture == "" {
		return nil
	}
	if !p.multiWord {
		return []string{capture}
	}

	words := strings.Fields(capture)
	refs := make([]string, 0, len(words))
	var name []string
	for _, w := range words {
		if statementTerminators[strings.ToLower(w)] {
			break
		}
		name = append(name, w)
		refs = append(refs, strings.Join(name, " "))
	}
	return refs
}

// placeholderRe matches printf-style substitution markers that Ren'Py
// expands at runtime, e.g. the "%s" in `imagebutton auto "btn_%s.png"`.
var placeholderRe = regexp.MustCompile(`%.`)

// stringLiteralRe matches single- or double-quoted string literals.
// Escaped quotes inside the literal are not handled; a truncated match
// only yields an extra "used" token, which is safe.
var stringLiteralRe = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// stripPlaceholders removes substitution markers from a path literal.
func stripPlaceholders(s string) string {
	return strings.TrimSpace(placeholderRe.ReplaceAllString(s, ""))
}
