package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/motorgrid/lotsync/internal/fetcher"
	"github.com/motorgrid/lotsync/internal/importer"
	"github.com/motorgrid/lotsync/internal/model"
	"github.com/motorgrid/lotsync/internal/snapshot"
)

// resolveInput returns a local path for the given input, downloading
// ftp:// URLs to a temp file first. The cleanup func removes any temp
// file and is safe to call unconditionally.
func resolveInput(ctx context.Context, input string) (string, func(), error) {
	if !strings.HasPrefix(input, "ftp://") {
		return input, func() {}, nil
	}

	f := fetcher.NewFTPFetcher(fetcher.FTPOptions{
		Timeout: time.Duration(cfg.Feed.TimeoutSecs) * time.Second,
	})
	tmpFile, err := os.CreateTemp("", "lotsync-snapshot-*.xlsx")
	if err != nil {
		return "", func() {}, eris.Wrap(err, "create temp snapshot file")
	}
	tmp := tmpFile.Name()
	tmpFile.Close()

	n, err := f.DownloadToFile(ctx, input, tmp)
	if err != nil {
		os.Remove(tmp)
		return "", func() {}, err
	}
	zap.L().Info("feed snapshot downloaded",
		zap.String("url", input),
		zap.Int64("bytes", n),
	)
	return tmp, func() { os.Remove(tmp) }, nil
}

// readSources imports a local or ftp:// snapshot into source records.
// An empty input falls back to the configured feed FTP URL.
func readSources(ctx context.Context, input, sheet string) ([]model.SourceRecord, func(), error) {
	if input == "" {
		input = cfg.Feed.FTPURL
	}
	if input == "" {
		return nil, func() {}, eris.New("no input given and feed.ftp_url is not configured")
	}

	path, cleanup, err := resolveInput(ctx, input)
	if err != nil {
		return nil, cleanup, err
	}
	records, err := importer.Read(path, importer.Options{
		SheetName:    sheet,
		BaseCurrency: cfg.Matcher.BaseCurrency,
	})
	if err != nil {
		return nil, cleanup, err
	}
	if len(records) == 0 {
		return nil, cleanup, eris.Errorf("no records found in %s", input)
	}
	return records, cleanup, nil
}

// openStore opens the snapshot database and runs migrations.
func openStore(ctx context.Context) (*snapshot.Store, error) {
	store, err := snapshot.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
