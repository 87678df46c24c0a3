// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes
func pad(s string, n int) string {
	if count := utf8.RuneCountInString(s); count < n {
		return s + strings.Repeat(" ", n-count)
	}
	return s
}

// PrintDocument outputs a human-readable summary of a resume document.
func (p *Printer) PrintDocument(doc *types.Resume) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", doc.Personal.FullName))
	sb.WriteString(fmt.Sprintf("Title:    %s\n", doc.Personal.JobTitle))
	sb.WriteString(fmt.Sprintf("Theme:    %s\n", doc.ThemeColor))
	if doc.Personal.Summary != "" {
		sb.WriteString(fmt.Sprintf("Summary:  %d words\n", len(strings.Fields(doc.Personal.Summary))))
	}
	sb.WriteString("\n")

	if len(doc.Experience) > 0 {
		sb.WriteString("Experience:\n")
		count := min(len(doc.Experience), maxItemsToShow)
		for i := 0; i < count; i++ {
			e := doc.Experience[i]
			sb.WriteString(fmt.Sprintf("  • %s", e.Role))
			if e.Company != "" {
				sb.WriteString(fmt.Sprintf(" at %s", e.Company))
			}
			if e.Date != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", e.Date))
			}
			sb.WriteString("\n")
		}
		if len(doc.Experience) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(doc.Experience)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(doc.Education) > 0 {
		sb.WriteString("Education:\n")
		count := min(len(doc.Education), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s, %s\n", doc.Education[i].Degree, doc.Education[i].School))
		}
		if len(doc.Education) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(doc.Education)-3))
		}
		sb.WriteString("\n")
	}

	if skills := rendering.SkillTokens(doc.Skills); len(skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills (%d): %s\n", len(skills), strings.Join(skills, ", ")))
	}

	p.printBox("RESUME DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPreview outputs which preview regions are visible.
func (p *Printer) PrintPreview(preview *rendering.Preview) {
	if preview == nil || len(preview.Regions) == 0 {
		return
	}

	var sb strings.Builder
	visible := 0
	for _, region := range preview.Regions {
		status := "shown"
		if region.Hidden {
			status = "hidden"
		} else {
			visible++
		}
		sb.WriteString(fmt.Sprintf("%-12s %s\n", region.ID, status))
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d regions visible", visible, len(preview.Regions)))

	p.printBox("PREVIEW REGIONS", sb.String())
}

// PrintAssistOutcome outputs what an assist action changed.
func (p *Printer) PrintAssistOutcome(outcome assist.Outcome, before, after string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Action:   %s\n", outcome.Action))
	sb.WriteString(fmt.Sprintf("Applied:  %t\n", outcome.Applied))
	if len(outcome.Refresh) > 0 {
		sb.WriteString(fmt.Sprintf("Refresh:  %s\n", strings.Join(outcome.Refresh, ", ")))
	}

	if outcome.Applied {
		sb.WriteString("\nBefore:\n")
		writeIndented(&sb, before)
		sb.WriteString("\nAfter:\n")
		writeIndented(&sb, after)
	}

	p.printBox("ASSIST RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

func writeIndented(sb *strings.Builder, text string) {
	if text == "" {
		sb.WriteString("  (empty)\n")
		return
	}
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString("  " + line + "\n")
	}
}
