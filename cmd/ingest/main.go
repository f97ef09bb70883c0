package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flashgen/question-service/internal/config"
	"github.com/flashgen/question-service/internal/db/queries"
)

// chunk is one line of the input file. Chunks are produced upstream by the
// guideline preprocessing pipeline.
type chunk struct {
	Section string `json:"section"`
	Content string `json:"content"`
}

func main() {
	file := flag.String("file", "", "JSON lines file of {\"section\", \"content\"} guideline chunks")
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if *file == "" {
		log.Fatal().Msg("-file is required")
	}

	var pg config.Postgres
	if err := config.Parse(&pg); err != nil {
		log.Fatal().Err(err).Msg("invalid database configuration")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, pg.DSN())
	if err != nil {
		log.Fatal().Err(err).Str("host", pg.Host).Msg("failed to connect to database")
	}
	defer conn.Close(ctx)

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("failed to open input")
	}
	defer f.Close()

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := queries.New(conn).WithTx(tx)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	inserted, skipped, line := 0, 0, 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var c chunk
		if err := json.Unmarshal([]byte(raw), &c); err != nil || strings.TrimSpace(c.Content) == "" {
			log.Warn().Int("line", line).Msg("skipping malformed chunk")
			skipped++
			continue
		}
		if err := q.InsertGuidelineChunk(ctx, queries.InsertGuidelineChunkParams{
			Section: strings.TrimSpace(c.Section),
			Content: strings.TrimSpace(c.Content),
		}); err != nil {
			log.Fatal().Err(err).Int("line", line).Msg("failed to insert chunk")
		}
		inserted++
	}
	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to read input")
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to commit chunks")
	}
	log.Info().Int("inserted", inserted).Int("skipped", skipped).Msg("guideline chunks ingested")
}
