package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	apppkg "github.com/funkiben/raftstore/internal/app"
	"github.com/funkiben/raftstore/internal/kv"
	"github.com/funkiben/raftstore/internal/raftstore"
)

// cmdBench appends synthetic commands with per-batch syncs and reports
// throughput, with the observability servers running alongside. The servers
// never touch the store, so the loop below is its only writer.
func cmdBench(ctx context.Context, cfg apppkg.Config, logger *slog.Logger, store raftstore.Store[kv.State], n, batch int) error {
	if n <= 0 {
		return fmt.Errorf("bench: entry count must be positive")
	}
	if batch <= 0 {
		batch = 1
	}

	a, err := apppkg.New(cfg, logger, store)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(runCtx) }()

	term := store.CurrentTerm()
	start := time.Now()
	syncs := 0
	for i := 0; i < n; i++ {
		select {
		case <-runCtx.Done():
			cancel()
			return <-done
		default:
		}
		cmd := kv.NewSetCommand("bench-"+strconv.Itoa(i), strconv.Itoa(i))
		store.AppendEntry(raftstore.LogEntry{
			Term: term,
			Type: raftstore.EntryCommand,
			Data: cmd.Encode(),
		})
		if (i+1)%batch == 0 {
			if err := store.Sync(); err != nil {
				return err
			}
			syncs++
		}
	}
	if n%batch != 0 {
		if err := store.Sync(); err != nil {
			return err
		}
		syncs++
	}
	elapsed := time.Since(start)

	fmt.Printf("appended %d entries in %s (%.0f entries/s, %d syncs, batch %d)\n",
		n, elapsed.Round(time.Millisecond), float64(n)/elapsed.Seconds(), syncs, batch)

	if cfg.MetricsAddr != "" {
		logger.Info("bench complete, serving metrics until interrupted", "addr", cfg.MetricsAddr)
		<-ctx.Done()
	}
	cancel()
	return <-done
}
