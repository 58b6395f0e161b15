package luabox

import (
	"fmt"
	"regexp"
)

// Diagnostic rewriting: raw interpreter errors are pattern-matched and
// rewritten into beginner-oriented messages before reaching the learner.
// Unrecognized errors pass through verbatim.

var (
	// Runtime errors look like "exercise:3: message"; parse errors look
	// like "exercise line:2(column:5) near 'x': syntax error".
	lineColonRe = regexp.MustCompile(`(?:^|[\s"])` + ChunkName + `:(\d+):`)
	lineParseRe = regexp.MustCompile(ChunkName + ` line:(\d+)`)

	notDefinedRe   = regexp.MustCompile(`'([^']+)' is not defined`)
	callNonFuncRe  = regexp.MustCompile(`attempt to call a non-function object`)
	indexNilRe     = regexp.MustCompile(`attempt to index a non-table object\s*\(nil\)`)
	indexOtherRe   = regexp.MustCompile(`attempt to index a non-table object\s*\((\w+)\)`)
	syntaxNearRe   = regexp.MustCompile(`near '([^']*)'`)
	eofRe          = regexp.MustCompile(`near '?<eof>'?|at EOF`)
	syntaxErrRe    = regexp.MustCompile(`syntax error`)
	blockedRe      = regexp.MustCompile(`blocked capability: ([^\n]+)`)
)

// Classify rewrites a raw diagnostic into learner-facing text, extracting
// the source line when the error or its stack carries one.
func Classify(raw, stack string) string {
	line := extractLine(raw)
	if line == 0 {
		line = extractLine(stack)
	}

	var msg string
	switch {
	case notDefinedRe.MatchString(raw):
		name := notDefinedRe.FindStringSubmatch(raw)[1]
		msg = fmt.Sprintf("'%s' is not defined. Declare the variable first, for example: local %s = ...", name, name)

	case callNonFuncRe.MatchString(raw):
		msg = "You tried to call something that is not a function. Check the spelling of the function name and that it was defined before this point."

	case indexNilRe.MatchString(raw):
		msg = "You tried to access a field on a nil value. Make sure the table exists before reading from it."

	case indexOtherRe.MatchString(raw):
		kind := indexOtherRe.FindStringSubmatch(raw)[1]
		msg = fmt.Sprintf("You tried to access a field on a %s value, but only tables have fields.", kind)

	case blockedRe.MatchString(raw):
		capability := blockedRe.FindStringSubmatch(raw)[1]
		msg = fmt.Sprintf("Your code tried to use a blocked capability: %s is not available in the sandbox.", capability)

	case eofRe.MatchString(raw):
		msg = "Your code ended unexpectedly. Check for a missing 'end' or an unclosed string or bracket."

	case syntaxErrRe.MatchString(raw):
		if m := syntaxNearRe.FindStringSubmatch(raw); m != nil && m[1] != "" {
			msg = fmt.Sprintf("Syntax error: unexpected '%s'. Check the code just before it.", m[1])
		} else {
			msg = "Syntax error. Check your code for typos near the reported position."
		}

	default:
		return raw
	}

	if line > 0 {
		return fmt.Sprintf("Line %d: %s", line, msg)
	}
	return msg
}

func extractLine(s string) int {
	if s == "" {
		return 0
	}
	if m := lineColonRe.FindStringSubmatch(s); m != nil {
		return atoiNoErr(m[1])
	}
	if m := lineParseRe.FindStringSubmatch(s); m != nil {
		return atoiNoErr(m[1])
	}
	return 0
}

func atoiNoErr(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
