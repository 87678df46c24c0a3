package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/resume-builder/internal/export"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Output formats supported by the render command.
const (
	FormatHTML  = "html"
	FormatLaTeX = "latex"
	FormatPDF   = "pdf"
)

var formatExtensions = map[string]string{
	FormatHTML:  ".html",
	FormatLaTeX: ".tex",
	FormatPDF:   ".pdf",
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a resume document to HTML, LaTeX or PDF",
	Long:  "Renders a document JSON file (or the example document) into one or more output formats.",
	RunE:  runRender,
}

var (
	renderInput    string
	renderFormats  []string
	renderOutDir   string
	renderName     string
	renderTemplate string
)

func init() {
	renderCmd.Flags().StringVarP(&renderInput, "in", "i", "", "Path to document JSON file (default: example document)")
	renderCmd.Flags().StringSliceVarP(&renderFormats, "format", "f", []string{FormatHTML}, "Output formats: html, latex, pdf")
	renderCmd.Flags().StringVarP(&renderOutDir, "out-dir", "o", ".", "Directory for output files")
	renderCmd.Flags().StringVar(&renderName, "name", "resume", "Base name of output files")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Path to a LaTeX template (default: built-in)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	doc, err := readDocument(renderInput)
	if err != nil {
		return err
	}

	template := renderTemplate
	if template == "" {
		template = cfg.Template
	}

	var pdf export.PDFRenderer
	if slices.Contains(renderFormats, FormatPDF) {
		pdf = export.NewChromePDF(cfg.ServerConfig().PDFTimeout, logger)
	}

	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintDocument(&doc)
	}

	written, err := renderFiles(cmd.Context(), doc, renderOptions{
		Formats:  renderFormats,
		OutDir:   renderOutDir,
		Name:     renderName,
		Template: template,
		PDF:      pdf,
	})
	if err != nil {
		return err
	}

	for _, path := range written {
		logger.Info("wrote output", "path", path)
		fmt.Println(path)
	}
	return nil
}

type renderOptions struct {
	Formats  []string
	OutDir   string
	Name     string
	Template string
	PDF      export.PDFRenderer
}

// renderFiles renders doc into every requested format concurrently and returns the paths
// written, sorted.
func renderFiles(ctx context.Context, doc types.Resume, opts renderOptions) ([]string, error) {
	formats, err := normalizeFormats(opts.Formats)
	if err != nil {
		return nil, err
	}
	if slices.Contains(formats, FormatPDF) && opts.PDF == nil {
		return nil, fmt.Errorf("pdf output requires a PDF renderer")
	}

	renderer, err := rendering.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		mu      sync.Mutex
		written []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, format := range formats {
		g.Go(func() error {
			content, err := renderFormat(ctx, renderer, doc, format, opts)
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", format, err)
			}

			path := filepath.Join(opts.OutDir, opts.Name+formatExtensions[format])
			if err := os.WriteFile(path, content, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			mu.Lock()
			written = append(written, path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(written)
	return written, nil
}

func renderFormat(ctx context.Context, renderer *rendering.Renderer, doc types.Resume, format string, opts renderOptions) ([]byte, error) {
	switch format {
	case FormatLaTeX:
		tex, err := rendering.RenderLaTeX(doc, opts.Template)
		if err != nil {
			return nil, err
		}
		return []byte(tex), nil
	case FormatHTML, FormatPDF:
		var html bytes.Buffer
		if err := renderer.Printable(&html, doc); err != nil {
			return nil, err
		}
		if format == FormatHTML {
			return html.Bytes(), nil
		}
		return opts.PDF.RenderPDF(ctx, html.String())
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// normalizeFormats lowercases, dedupes and checks the requested formats. "tex" is accepted
// as an alias for latex.
func normalizeFormats(formats []string) ([]string, error) {
	var out []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "tex" {
			f = FormatLaTeX
		}
		if _, ok := formatExtensions[f]; !ok {
			return nil, fmt.Errorf("unknown format %q (want html, latex or pdf)", f)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no output format given")
	}
	return out, nil
}
