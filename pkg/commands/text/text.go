// Package text normalizes the help text of CLI commands.
package text

import "strings"

// Indentation prefixes every example line.
const Indentation = `  `

// LongDesc strips the common indentation of a raw string literal and trims surrounding blank
// lines, so long descriptions can be written indented in source.
func LongDesc(s string) string {
	return strings.Join(dedent(s), "\n")
}

// Examples dedents s like LongDesc and indents every line by Indentation, which is how cobra
// expects examples to look.
func Examples(s string) string {
	lines := dedent(s)
	for i, line := range lines {
		if line != "" {
			lines[i] = Indentation + line
		}
	}

	return strings.Join(lines, "\n")
}

func dedent(s string) []string {
	s = strings.Trim(s, "\n")
	if strings.TrimSpace(s) == "" {
		return nil
	}

	lines := strings.Split(s, "\n")

	prefix := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if prefix < 0 || n < prefix {
			prefix = n
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimRight(line[prefix:], " \t")
	}

	return lines
}
