package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MrWong99/presenter/internal/config"
	"github.com/MrWong99/presenter/internal/match"
)

// explain scores utterance against every catalog entry and prints the
// signals plus what the dialogue would do with the best match.
func explain(ctx context.Context, w io.Writer, cfg *config.Config, reg *config.Registry, utterance string) error {
	src, err := reg.CreateSource(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	if c, ok := src.(interface{ Close() }); ok {
		defer c.Close()
	}
	entries, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "catalog is empty")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tLEXICAL\tPHONETIC\tCONFIDENCE")
	for i, e := range entries {
		sig := match.Score(utterance, e.Name)
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.3f\t%.3f\n", i, e.Name, sig.Lexical, sig.Phonetic, sig.Confidence)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	best, err := match.New().Best(ctx, utterance, entries)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nbest: %q (%.3f) -> %s\n", best.Entry.Name, best.Confidence, decision(best.Confidence, cfg.Matching))
	return nil
}

func decision(confidence float64, m config.MatchingConfig) string {
	switch {
	case confidence >= m.AutoStartThreshold:
		return "start"
	case confidence >= m.ConfirmThreshold:
		return "confirm"
	default:
		return "not recognized"
	}
}
