package fsadapter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jgivc/encodetracker/internal/common"
	"github.com/jgivc/encodetracker/internal/entity"
	"github.com/spf13/afero"
)

const (
	// sampleSize is how much content is hashed from each end of the file.
	sampleSize = 64 * 1024
)

type fsAdapter struct {
	fs  afero.Fs
	log *slog.Logger
}

func NewFSAdapter(log *slog.Logger) *fsAdapter {
	return NewFSAdapterWithFS(afero.NewOsFs(), log)
}

func NewFSAdapterWithFS(fs afero.Fs, log *slog.Logger) *fsAdapter {
	return &fsAdapter{
		fs:  fs,
		log: log.With(slog.String("item", "FSAdapter")),
	}
}

func (a *fsAdapter) Exists(path string) bool {
	if path == "" {
		return false
	}

	_, err := a.fs.Stat(path)

	return err == nil
}

// CalculateFingerprint derives the content identity of path without reading
// the whole file: a sha256 over a "name-size" seed, the first 64 KiB and, for
// files over 128 KiB, the last 64 KiB. A change confined strictly to the
// middle of a large file is not guaranteed to alter the hash; that trade is
// what keeps multi-gigabyte sources near-constant time.
func (a *fsAdapter) CalculateFingerprint(path string) (entity.SourceFingerprint, error) {
	stat, err := a.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entity.SourceFingerprint{}, fmt.Errorf("%w: %s", common.ErrSourceNotFound, path)
		}

		return entity.SourceFingerprint{}, fmt.Errorf("cannot stat source file: %w", err)
	}

	if stat.IsDir() {
		return entity.SourceFingerprint{}, fmt.Errorf("%w: %s is a directory", common.ErrSourceNotFound, path)
	}

	size := stat.Size()
	filename := filepath.Base(path)

	file, err := a.fs.Open(path)
	if err != nil {
		return entity.SourceFingerprint{}, fmt.Errorf("cannot open source file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	fmt.Fprintf(hasher, "%s-%d", filename, size)

	if _, err := io.Copy(hasher, io.LimitReader(file, sampleSize)); err != nil {
		return entity.SourceFingerprint{}, fmt.Errorf("cannot read head sample: %w", err)
	}

	if size > sampleSize*2 {
		if _, err := file.Seek(-sampleSize, io.SeekEnd); err != nil {
			return entity.SourceFingerprint{}, fmt.Errorf("cannot seek tail sample: %w", err)
		}

		if _, err := io.Copy(hasher, io.LimitReader(file, sampleSize)); err != nil {
			return entity.SourceFingerprint{}, fmt.Errorf("cannot read tail sample: %w", err)
		}
	}

	fp, err := entity.NewSourceFingerprint(filename, size, hex.EncodeToString(hasher.Sum(nil)))
	if err != nil {
		return entity.SourceFingerprint{}, fmt.Errorf("cannot build fingerprint: %w", err)
	}

	a.log.Debug("Fingerprint calculated",
		slog.String("path", path), slog.String("hash", fp.ContentHash[:8]))

	return fp, nil
}

// ListFiles returns every regular file directly under dir whose extension is
// in extensions, sorted lexicographically by path.
func (a *fsAdapter) ListFiles(dir string, extensions []string) ([]string, error) {
	entries, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			a.log.Warn("Input directory does not exist", slog.String("dir", dir))

			return nil, nil
		}

		return nil, fmt.Errorf("cannot read input dir: %w", err)
	}

	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if _, ok := extSet[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(files)

	a.log.Info("Input files found", slog.String("dir", dir), slog.Int("count", len(files)))

	return files, nil
}
