// Package main implements the raftstorectl CLI for inspecting and exercising
// a durable consensus store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	apppkg "github.com/funkiben/raftstore/internal/app"
	"github.com/funkiben/raftstore/internal/kv"
	"github.com/funkiben/raftstore/internal/observability/metrics"
	"github.com/funkiben/raftstore/internal/raftstore"
)

const usage = `Usage:
  raftstorectl [--config <path>] put <key> <value>
  raftstorectl [--config <path>] get <key>
  raftstorectl [--config <path>] log [--from <pos>]
  raftstorectl [--config <path>] compact
  raftstorectl [--config <path>] bench [--n <entries>] [--batch <size>]
  raftstorectl [--config <path>] browse

Commands:
  put      append a set command to the log and sync
  get      read a key from the snapshot state plus the replayed log
  log      print stored entries starting at a position
  compact  snapshot the replayed state and drop the covered entries
  bench    append synthetic commands and report throughput
  browse   interactive store inspector

Flags:
  --config  TOML config path; RAFTSTORE_* environment variables override it
`

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "raftstorectl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "TOML config path")
	flag.Usage = func() { _, _ = fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("subcommand required: put | get | log | compact | bench | browse")
	}

	cfg, err := apppkg.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	slog.SetDefault(newLogger(cfg.LogLevel))
	logger := slog.Default()

	promMetrics, err := metrics.NewPrometheus(nil)
	if err != nil {
		return err
	}

	store, err := apppkg.OpenStore(cfg, logger, promMetrics)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "put":
		if len(args) != 3 {
			return fmt.Errorf("usage: put <key> <value>")
		}
		return cmdPut(store, args[1], args[2])

	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: get <key>")
		}
		return cmdGet(ctx, store, args[1])

	case "log":
		fs := flag.NewFlagSet("log", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		from := fs.Int("from", 0, "first log position to print")
		if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 {
			return fmt.Errorf("usage: log [--from <pos>]")
		}
		return cmdLog(store, *from)

	case "compact":
		if len(args) != 1 {
			return fmt.Errorf("usage: compact")
		}
		return cmdCompact(ctx, store)

	case "bench":
		fs := flag.NewFlagSet("bench", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		n := fs.Int("n", 10000, "number of entries to append")
		batch := fs.Int("batch", 100, "entries per sync")
		if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 {
			return fmt.Errorf("usage: bench [--n <entries>] [--batch <size>]")
		}
		return cmdBench(ctx, cfg, logger, store, *n, *batch)

	case "browse":
		if len(args) != 1 {
			return fmt.Errorf("usage: browse")
		}
		return cmdBrowse(ctx, store)

	default:
		flag.Usage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func cmdPut(store raftstore.Store[kv.State], key, value string) error {
	cmd := kv.NewSetCommand(key, value)
	store.AppendEntry(raftstore.LogEntry{
		Term: store.CurrentTerm(),
		Type: raftstore.EntryCommand,
		Data: cmd.Encode(),
	})
	if err := store.Sync(); err != nil {
		return err
	}
	fmt.Printf("ok (position %d, mid %s)\n", store.NumEntries()-1, cmd.MID)
	return nil
}

func cmdGet(ctx context.Context, store raftstore.Store[kv.State], key string) error {
	state, err := replayState(ctx, store)
	if err != nil {
		return err
	}
	value, found := state.Get(key)
	if !found {
		fmt.Printf("(not found) %s\n", key)
		return nil
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}

func cmdLog(store raftstore.Store[kv.State], from int) error {
	meta := store.SnapshotMeta()
	fmt.Printf("snapshot: last_index=%d last_term=%d size=%d bytes\n",
		meta.LastIndex, meta.LastTerm, store.SnapshotSize())

	entries := store.EntriesFrom(from)
	for i, e := range entries {
		pos := from + i
		// Global log indices are 1-based and resume after the snapshot.
		idx := meta.LastIndex + 1 + uint32(pos)
		switch e.Type {
		case raftstore.EntryCommand:
			cmd, ok := kv.DecodeSetCommand(e.Data)
			if !ok {
				fmt.Printf("%5d  idx=%-6d term=%-4d command (undecodable, %d bytes)\n", pos, idx, e.Term, len(e.Data))
				continue
			}
			fmt.Printf("%5d  idx=%-6d term=%-4d set %s = %s (mid %s)\n", pos, idx, e.Term, cmd.Key, cmd.Value, cmd.MID)
		case raftstore.EntryConfig:
			fmt.Printf("%5d  idx=%-6d term=%-4d config (%d bytes)\n", pos, idx, e.Term, len(e.Data))
		default:
			fmt.Printf("%5d  idx=%-6d term=%-4d unknown type %d (%d bytes)\n", pos, idx, e.Term, e.Type, len(e.Data))
		}
	}
	fmt.Printf("%d entries\n", len(entries))
	return nil
}

// cmdCompact folds every stored entry into a new snapshot and truncates the
// log down to nothing. The snapshot index advances by the number of entries
// folded in.
func cmdCompact(ctx context.Context, store raftstore.Store[kv.State]) error {
	n := store.NumEntries()
	if n == 0 {
		fmt.Println("nothing to compact")
		return nil
	}

	state, err := replayState(ctx, store)
	if err != nil {
		return err
	}

	meta := store.SnapshotMeta()
	lastTerm := meta.LastTerm
	if e, ok := store.Entry(n - 1); ok {
		lastTerm = e.Term
	}

	store.InstallSnapshot(meta.LastIndex+uint32(n), lastTerm, state.SnapshotState(ctx))
	store.TruncatePrefix(n)
	if err := store.Sync(); err != nil {
		return err
	}

	newMeta := store.SnapshotMeta()
	fmt.Printf("compacted %d entries into snapshot (last_index=%d, %d bytes)\n",
		n, newMeta.LastIndex, store.SnapshotSize())
	return nil
}

// replayState rebuilds the application state: the installed snapshot first,
// then every decodable command entry in log order.
func replayState(ctx context.Context, store raftstore.Store[kv.State]) (*kv.Store, error) {
	state := kv.NewStore(otel.Tracer("raftstorectl"))
	state.Restore(ctx, store.SnapshotState())

	for _, e := range store.EntriesFrom(0) {
		if e.Type != raftstore.EntryCommand {
			continue
		}
		cmd, ok := kv.DecodeSetCommand(e.Data)
		if !ok {
			return nil, fmt.Errorf("undecodable command entry in log")
		}
		state.Apply(ctx, cmd)
	}
	return state, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
