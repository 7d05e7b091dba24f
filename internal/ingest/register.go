package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

var mimeByExt = map[string]string{
	".csv": "text/csv",
	".ofx": "application/x-ofx",
	".qfx": "application/x-ofx",
}

// RegisterDir walks the raw statement directory and registers every file by
// content hash. The first path segment under the root names the bank, so
// chase/2024-01.csv registers under bank "chase". Returns the number of
// newly registered files.
func (e *Engine) RegisterDir(ctx context.Context) (int, error) {
	registered := 0
	err := filepath.WalkDir(e.RawDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			e.Logger.WithError(err).WithField("path", path).Warn("read statement file")
			return nil
		}

		rel, err := filepath.Rel(e.RawDir, path)
		if err != nil {
			return err
		}

		sum := sha256.Sum256(data)
		isNew, err := e.Store.IngestFiles.Register(ctx, &sqlconfig.IngestFileCreate{
			Source:        "file",
			Bank:          bankFromPath(rel),
			Filename:      filepath.ToSlash(rel),
			ContentSHA256: hex.EncodeToString(sum[:]),
			SizeBytes:     int64(len(data)),
			MimeType:      mimeByExt[strings.ToLower(filepath.Ext(path))],
		})
		if err != nil {
			return err
		}
		if isNew {
			registered++
			e.Logger.WithFields(logrus.Fields{
				"filename": rel,
				"bytes":    len(data),
			}).Info("Registered statement file")
		}
		return nil
	})
	return registered, err
}

func bankFromPath(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 && parts[0] != "" {
		return strings.ToLower(parts[0])
	}
	return "unknown"
}
