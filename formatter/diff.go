// Package formatter renders formatting results for terminal output.
package formatter

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/gnolang/keyfmt/format"
)

const contextLines = 3

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	removedStyle = color.New(color.FgRed)
	addedStyle   = color.New(color.FgGreen)
	hunkStyle    = color.New(color.FgCyan)
	headerStyle  = color.New(color.Bold)
	okStyle      = color.New(color.FgGreen, color.Bold)
)

// GenerateDiff returns a colorized unified diff between the original and
// formatted text of res, or "" when formatting changed nothing.
func GenerateDiff(res format.Result) (string, error) {
	if !res.Changed() {
		return "", nil
	}

	name := res.Path
	if name == "" {
		name = "<stdin>"
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(res.Before),
		B:        splitLines(res.After),
		FromFile: name + ".orig",
		ToFile:   name,
		Context:  contextLines,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", name, err)
	}
	return colorize(text), nil
}

// splitLines splits text into newline-terminated lines. Unlike
// difflib.SplitLines it adds no empty line after a final newline.
func splitLines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(text), "\n")
	if lines[len(lines)-1] == "" {
		return lines[:len(lines)-1]
	}
	// keep the diff line-oriented when the last line is unterminated
	lines[len(lines)-1] += "\n"
	return lines
}

func colorize(diff string) string {
	var builder strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		var styled string
		switch {
		case strings.HasPrefix(body, "---"), strings.HasPrefix(body, "+++"):
			styled = headerStyle.Sprint(body)
		case strings.HasPrefix(body, "@@"):
			styled = hunkStyle.Sprint(body)
		case strings.HasPrefix(body, "-"):
			styled = removedStyle.Sprint(body)
		case strings.HasPrefix(body, "+"):
			styled = addedStyle.Sprint(body)
		default:
			styled = body
		}
		builder.WriteString(styled)
		if strings.HasSuffix(line, "\n") {
			builder.WriteByte('\n')
		}
	}
	return builder.String()
}

// CheckReport lists files whose layout grids are not formatted, in the same
// header style as other diagnostics. It returns "" when every file is clean.
func CheckReport(results []format.Result) string {
	var (
		builder strings.Builder
		count   int
	)
	for _, res := range results {
		if !res.Changed() {
			continue
		}
		count++
		builder.WriteString(errorStyle.Sprint("error: ") + "layout not formatted\n")
		builder.WriteString(lineStyle.Sprint(" --> ") + fileStyle.Sprint(res.Path) + "\n\n")
	}
	if count == 0 {
		return ""
	}
	noun := "files"
	if count == 1 {
		noun = "file"
	}
	builder.WriteString(errorStyle.Sprintf("%d %s would be reformatted\n", count, noun))
	return builder.String()
}

// Summary is a one-line account of a write run.
func Summary(results []format.Result) string {
	changed := 0
	for _, res := range results {
		if res.Changed() {
			changed++
		}
	}
	return okStyle.Sprintf("%d of %d files reformatted", changed, len(results))
}
