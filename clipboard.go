package main

import (
	"html"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/text/encoding/charmap"
)

func readClipboardText() (string, error) {
	if runtime.GOOS == "darwin" {
		if output, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(output), nil
		}
	}
	return clipboard.ReadAll()
}

// pasteScript turns whatever is on the clipboard into prompt text. Rich text
// copied out of word processors arrives as RTF or HTML.
func pasteScript() (Script, error) {
	raw, err := readClipboardText()
	if err != nil {
		return Script{}, err
	}
	text := cleanClipboardText(raw)
	if strings.TrimSpace(text) == "" {
		return Script{}, ErrEmptyScript
	}
	return Script{Text: text, Filename: "clipboard"}, nil
}

func isRTF(text string) bool {
	return strings.HasPrefix(text, "{\\rtf") || strings.Contains(text, "\\rtf1")
}

func isHTML(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "<") &&
		(strings.Contains(trimmed, "<html") || strings.Contains(trimmed, "<body") ||
			strings.Contains(trimmed, "<div") || strings.Contains(trimmed, "<p"))
}

func cleanClipboardText(text string) string {
	switch {
	case text == "":
		return text
	case isRTF(text):
		text = extractTextFromRTF(text)
	case isHTML(text):
		text = extractTextFromHTML(text)
	}
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			result.WriteRune(r)
		}
	}
	return normalizeText(result.String())
}

// rtfDestinations are groups whose text is document metadata, not content.
var rtfDestinations = map[string]bool{
	"fonttbl":           true,
	"colortbl":          true,
	"expandedcolortbl":  true,
	"stylesheet":        true,
	"info":              true,
	"pict":              true,
	"object":            true,
	"header":            true,
	"footer":            true,
	"listtable":         true,
	"listoverridetable": true,
	"filetbl":           true,
	"revtbl":            true,
	"rsidtbl":           true,
	"generator":         true,
	"themedata":         true,
	"latentstyles":      true,
	"datastore":         true,
	"fldinst":           true,
}

// extractTextFromRTF keeps body text, paragraph breaks, tabs and \'hh
// escapes (decoded as Windows-1252). Destination groups such as the font
// table and anything marked \* are dropped whole.
func extractTextFromRTF(rtf string) string {
	var result strings.Builder
	result.Grow(len(rtf))
	b := []byte(rtf)

	// skip is the depth of the group being dropped, 0 when emitting
	depth, skip := 0, 0
	emit := func(r rune) {
		if skip == 0 {
			result.WriteRune(r)
		}
	}

	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '{':
			depth++
		case c == '}':
			if skip > 0 && depth <= skip {
				skip = 0
			}
			if depth > 0 {
				depth--
			}
		case c == '\\' && i+1 < len(b):
			next := b[i+1]
			switch {
			case next == '\'' && i+3 < len(b):
				if val, err := strconv.ParseUint(string(b[i+2:i+4]), 16, 8); err == nil {
					emit(charmap.Windows1252.DecodeByte(byte(val)))
				}
				i += 3
			case next == '\\' || next == '{' || next == '}':
				emit(rune(next))
				i++
			case next == '~':
				emit(' ')
				i++
			case next == '*':
				if skip == 0 {
					skip = depth
				}
				i++
			case next == '\n' || next == '\r':
				// an escaped line break is a paragraph break
				emit('\n')
				i++
				if next == '\r' && i+1 < len(b) && b[i+1] == '\n' {
					i++
				}
			case isASCIILetter(next):
				start := i + 1
				for i+1 < len(b) && isASCIILetter(b[i+1]) {
					i++
				}
				word := string(b[start : i+1])
				for i+1 < len(b) && (b[i+1] == '-' || (b[i+1] >= '0' && b[i+1] <= '9')) {
					i++
				}
				if i+1 < len(b) && b[i+1] == ' ' {
					i++
				}
				switch {
				case rtfDestinations[word]:
					if skip == 0 {
						skip = depth
					}
				case word == "par" || word == "line":
					emit('\n')
				case word == "tab":
					emit('\t')
				}
			default:
				i++
			}
		case c == '\n' || c == '\r':
			// raw newlines inside RTF are not content
		case c >= 32 && c < 127, c == '\t':
			emit(rune(c))
		}
	}
	return result.String()
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func extractTextFromHTML(markup string) string {
	var result strings.Builder
	result.Grow(len(markup))
	var tag strings.Builder
	inTag := false
	for _, r := range markup {
		switch {
		case r == '<':
			inTag = true
			tag.Reset()
		case r == '>' && inTag:
			inTag = false
			name := ""
			if fields := strings.Fields(tag.String()); len(fields) > 0 {
				name = strings.ToLower(strings.Trim(fields[0], "/"))
			}
			if name == "br" || name == "p" || name == "div" || name == "li" {
				result.WriteByte('\n')
			}
		case inTag:
			tag.WriteRune(r)
		default:
			result.WriteRune(r)
		}
	}
	return html.UnescapeString(result.String())
}
