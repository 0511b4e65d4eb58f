// collapsi-genindex builds the position index for a solved store as a batch
// job: it enumerates canonical initial deals, keeps the ones the store has
// solved, and appends their reconstruction records. Safe to re-run (resumes)
// and to shard across processes with -stride/-offset, each shard writing its
// own output file. Interrupt with SIGINT/SIGTERM; progress is kept.
// With -dedup it instead rewrites the store keeping the first record per
// (key, turn) and exits.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/namsral/flag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/huynd2210/Collapsi/index"
	"github.com/huynd2210/Collapsi/store"
)

func main() {
	fs := flag.NewFlagSet("collapsi-genindex", flag.ExitOnError)
	dbPath := fs.String("db", "", "solved store to index")
	outPath := fs.String("out", "", "index file to append to")
	stride := fs.Int("stride", 1, "number of shards")
	offset := fs.Int("offset", 0, "this shard's offset, 0 <= offset < stride")
	dedup := fs.Bool("dedup", false, "deduplicate the solved store in place and exit")
	logLevel := fs.String("log-level", "info", "zerolog level")
	fs.Parse(os.Args[1:])

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad log level")
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *dedup {
		if *dbPath == "" {
			log.Fatal().Msg("-db is required")
		}
		kept, dropped, err := store.Dedup(*dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("dedup failed")
		}
		log.Info().Int("kept", kept).Int("dropped", dropped).Msg("dedup complete")
		return
	}

	if *dbPath == "" || *outPath == "" {
		log.Fatal().Msg("-db and -out are required")
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening solved store")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &index.Builder{Stride: *stride, Offset: *offset}
	added, err := b.Build(ctx, db, *outPath)
	switch {
	case errors.Is(err, context.Canceled):
		log.Info().Int("added", added).Msg("interrupted; progress kept, re-run to resume")
	case err != nil:
		log.Fatal().Err(err).Msg("index build failed")
	default:
		log.Info().Int("added", added).Msg("index build complete")
	}
}
