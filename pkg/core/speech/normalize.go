package speech

import (
	"regexp"
	"strings"
	"unicode"
)

// The synthesis voice reads text verbatim, so markdown decoration and
// compact technical notation have to be rewritten into spoken-word form
// before the request goes out.

var (
	fenceRe   = regexp.MustCompile("(?s)```[a-zA-Z]*\n?.*?```")
	headingRe = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*|__(.*?)__`)
	italicRe  = regexp.MustCompile(`\*(.*?)\*|\b_(.*?)_\b`)
	bulletRe  = regexp.MustCompile(`^\s*[-*+]\s+`)
	tableRowRe = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	multiNL   = regexp.MustCompile(`\n{2,}`)
	spacesRe  = regexp.MustCompile(`[ \t]+`)
)

// acronyms maps technical abbreviations onto spoken letter sequences.
// Matching is exact case; lowercase words like "mac" in prose are left
// alone.
var acronyms = map[string]string{
	"HTTP":  "H T T P",
	"HTTPS": "H T T P S",
	"API":   "A P I",
	"CLI":   "C L I",
	"CPU":   "C P U",
	"DNS":   "D N S",
	"DHCP":  "D H C P",
	"IP":    "I P",
	"LACP":  "L A C P",
	"LLDP":  "L L D P",
	"MAC":   "M A C",
	"PoE":   "P o E",
	"SNMP":  "S N M P",
	"SSH":   "S S H",
	"STP":   "S T P",
	"URL":   "U R L",
	"VLAN":  "V LAN",
	"VSX":   "V S X",
}

var acronymRe = func() *regexp.Regexp {
	keys := make([]string, 0, len(acronyms))
	for k := range acronyms {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return regexp.MustCompile(`\b(` + strings.Join(keys, "|") + `)\b`)
}()

// contractions maps contracted forms onto their spoken expansions.
// Lookup is lowercase; capitalization of the first letter is preserved.
var contractions = map[string]string{
	"don't":     "do not",
	"doesn't":   "does not",
	"didn't":    "did not",
	"can't":     "cannot",
	"couldn't":  "could not",
	"won't":     "will not",
	"wouldn't":  "would not",
	"shouldn't": "should not",
	"isn't":     "is not",
	"aren't":    "are not",
	"wasn't":    "was not",
	"weren't":   "were not",
	"hasn't":    "has not",
	"haven't":   "have not",
	"it's":      "it is",
	"that's":    "that is",
	"there's":   "there is",
	"what's":    "what is",
	"let's":     "let us",
	"i'm":       "I am",
	"i've":      "I have",
	"i'll":      "I will",
	"you're":    "you are",
	"you'll":    "you will",
	"we're":     "we are",
	"we'll":     "we will",
	"they're":   "they are",
}

var contractionRe = func() *regexp.Regexp {
	keys := make([]string, 0, len(contractions))
	for k := range contractions {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(keys, "|") + `)\b`)
}()

// SpeakableText rewrites reply text into a form the synthesis voice can
// read naturally. Tables and code blocks are removed entirely; a short
// spoken notice is appended so the listener knows to look at the screen.
func SpeakableText(text string) string {
	hadCode := fenceRe.MatchString(text)
	text = fenceRe.ReplaceAllString(text, "")

	var hadTable bool
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if tableRowRe.MatchString(line) {
			hadTable = true
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")

	text = headingRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1$2")
	text = italicRe.ReplaceAllString(text, "$1$2")
	text = joinBullets(text)

	text = multiNL.ReplaceAllString(text, ". ")
	text = strings.ReplaceAll(text, "\n", " ")

	text = acronymRe.ReplaceAllStringFunc(text, func(m string) string {
		return acronyms[m]
	})
	text = contractionRe.ReplaceAllStringFunc(text, expandContraction)

	text = spacesRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	switch {
	case hadTable && hadCode:
		text = appendSentence(text, "I've added the table and code snippet for you to see.")
	case hadTable:
		text = appendSentence(text, "I've added the table for you to see.")
	case hadCode:
		text = appendSentence(text, "I've added the code snippet for you to see.")
	}
	return text
}

// joinBullets turns each run of bullet lines into one comma-joined clause.
func joinBullets(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	var run []string

	flush := func() {
		if len(run) == 0 {
			return
		}
		clause := strings.Join(run, ", ")
		if !strings.HasSuffix(clause, ".") {
			clause += "."
		}
		out = append(out, clause)
		run = nil
	}

	for _, line := range lines {
		if bulletRe.MatchString(line) {
			item := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
			item = strings.TrimSuffix(item, ".")
			if item != "" {
				run = append(run, item)
			}
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()
	return strings.Join(out, "\n")
}

// expandContraction expands a matched contraction, keeping a leading
// capital when the original had one.
func expandContraction(m string) string {
	expanded, ok := contractions[strings.ToLower(m)]
	if !ok {
		return m
	}
	if len(m) > 0 && unicode.IsUpper(rune(m[0])) && len(expanded) > 0 {
		return strings.ToUpper(expanded[:1]) + expanded[1:]
	}
	return expanded
}

// appendSentence appends a sentence, making sure the preceding text ends
// with terminal punctuation.
func appendSentence(text, sentence string) string {
	if text == "" {
		return sentence
	}
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	return text + " " + sentence
}
