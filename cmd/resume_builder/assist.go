package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/document"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/spf13/cobra"
)

var assistCmd = &cobra.Command{
	Use:       "assist <summary|polish|skills>",
	Short:     "Run one assist action against a document file",
	Long:      "Drafts the summary, polishes one experience description, or suggests skills with Gemini, then writes the updated document. The API key is read from GEMINI_API_KEY.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(assist.ActionSummary), string(assist.ActionPolish), string(assist.ActionSkills)},
	RunE:      runAssist,
}

var (
	assistInput  string
	assistOutput string
	assistEntry  string
)

func init() {
	assistCmd.Flags().StringVarP(&assistInput, "in", "i", "", "Path to document JSON file (default: example document)")
	assistCmd.Flags().StringVarP(&assistOutput, "out", "o", "", "Path to write the updated document (default: stdout)")
	assistCmd.Flags().StringVar(&assistEntry, "entry", "", "Experience entry id for polish (default: first entry)")
	rootCmd.AddCommand(assistCmd)
}

func runAssist(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	seed, err := readDocument(assistInput)
	if err != nil {
		return err
	}

	doc := document.New(seed)
	assistant := assist.New(doc, assist.NewClientFactory(cfg.LLMConfig()),
		assist.WithLogger(logger),
		assist.WithTimeout(cfg.SessionConfig().AssistTimeout),
	)

	action := assist.Action(args[0])
	before := assistTarget(doc.Snapshot(), action, assistEntry)

	// The key is read at call time and never written anywhere.
	outcome, err := runAssistAction(cmd.Context(), assistant, doc, action, assistEntry, os.Getenv(apiKeyEnv))
	if err != nil {
		return err
	}

	snapshot := doc.Snapshot()
	if cfg.Verbose {
		observability.NewPrinter(os.Stderr).PrintAssistOutcome(outcome, before, assistTarget(snapshot, action, assistEntry))
	}

	return writeJSON(assistOutput, snapshot)
}

// runAssistAction dispatches action. Polish without an entry id targets the first experience entry.
func runAssistAction(ctx context.Context, a *assist.Assistant, doc *document.Document, action assist.Action, entryID, apiKey string) (assist.Outcome, error) {
	switch action {
	case assist.ActionSummary:
		return a.DraftSummary(ctx, apiKey)
	case assist.ActionSkills:
		return a.SuggestSkills(ctx, apiKey)
	case assist.ActionPolish:
		if entryID == "" {
			snapshot := doc.Snapshot()
			if len(snapshot.Experience) == 0 {
				return assist.Outcome{Action: assist.ActionPolish}, nil
			}
			entryID = snapshot.Experience[0].ID
		}
		return a.PolishExperience(ctx, apiKey, entryID)
	default:
		return assist.Outcome{}, fmt.Errorf("unknown assist action %q", action)
	}
}

// assistTarget returns the text an action overwrites.
func assistTarget(doc types.Resume, action assist.Action, entryID string) string {
	switch action {
	case assist.ActionSummary:
		return doc.Personal.Summary
	case assist.ActionSkills:
		return doc.Skills
	case assist.ActionPolish:
		for _, e := range doc.Experience {
			if e.ID == entryID || entryID == "" {
				return e.Description
			}
		}
	}
	return ""
}
