package report

import (
	"context"
	"fmt"

	"multigit/internal/config"
	"multigit/internal/vcs"
)

// Fetch downloads from the repository's "origin" remote, streaming live
// progress, then prints a transfer summary and records FETCH_HEAD.
func (r *Reporter) Fetch(ctx context.Context, repo config.Repository) error {
	handle, err := r.Backend.Open(repo.Location)
	if err != nil {
		return err
	}
	if err := r.title(repo, handle); err != nil {
		return err
	}

	remote, err := handle.Remote("origin")
	if err != nil {
		return err
	}

	err = remote.Download(ctx, r.Creds, vcs.Callbacks{
		Sideband: func(text string) {
			fmt.Fprint(r.Out, text)
			r.flush()
		},
		UpdateTip:        r.printTip,
		TransferProgress: r.printProgress,
	})
	if err != nil {
		return err
	}

	r.printSummary(remote.Stats())
	if err := remote.Disconnect(); err != nil {
		return err
	}
	return remote.UpdateTips(vcs.UpdateFetchHead)
}

func (r *Reporter) printTip(tip vcs.TipUpdate) {
	if tip.OldHash == "" {
		fmt.Fprintf(r.Out, "[new]     %-20s %s\n", tip.NewHash, tip.RefName)
	} else {
		fmt.Fprintf(r.Out, "[updated] %.10s..%.10s %s\n", tip.OldHash, tip.NewHash, tip.RefName)
	}
	r.flush()
}

// printProgress overwrites one line in place: object receipt while the
// pack streams, delta resolution after. Progress, not history.
func (r *Reporter) printProgress(p vcs.TransferProgress) {
	if p.TotalObjects == 0 {
		return
	}
	if p.ReceivedObjects == p.TotalObjects {
		fmt.Fprintf(r.Out, "Resolving deltas %d/%d\r", p.IndexedDeltas, p.TotalDeltas)
	} else {
		fmt.Fprintf(r.Out, "Received %d/%d objects (%d) in %d bytes\r",
			p.ReceivedObjects, p.TotalObjects, p.IndexedObjects, p.ReceivedBytes)
	}
	r.flush()
}

func (r *Reporter) printSummary(stats vcs.TransferProgress) {
	if stats.LocalObjects > 0 {
		fmt.Fprintf(r.Out, "\rReceived %d/%d objects in %d bytes (used %d local objects)\n",
			stats.IndexedObjects, stats.TotalObjects, stats.ReceivedBytes, stats.LocalObjects)
	} else {
		fmt.Fprintf(r.Out, "\rReceived %d/%d objects in %d bytes\n",
			stats.IndexedObjects, stats.TotalObjects, stats.ReceivedBytes)
	}
}
