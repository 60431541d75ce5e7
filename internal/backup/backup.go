// file: internal/backup/backup.go
// version: 2.0.0
// guid: 817cf188-11f9-4088-91a3-fea6a35430ff

package backup

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/rs/zerolog"
)

const (
	manifestName = "manifest.json"
	keyPrefix    = "keys/"
	fileSuffix   = ".tar.gz"
)

// ErrChecksumMismatch is returned when an archived key does not match its manifest checksum.
var ErrChecksumMismatch = errors.New("backup checksum mismatch")

// BackupInfo contains information about a backup
type BackupInfo struct {
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Checksum     string    `json:"checksum"`
	DatabaseType string    `json:"database_type"`
	Keys         int       `json:"keys"`
	CreatedAt    time.Time `json:"created_at"`
}

// BackupConfig holds backup configuration
type BackupConfig struct {
	BackupDir        string
	MaxBackups       int
	CompressionLevel int
}

// DefaultBackupConfig returns default backup configuration
func DefaultBackupConfig() BackupConfig {
	return BackupConfig{
		BackupDir:        "backups",
		MaxBackups:       10,
		CompressionLevel: gzip.BestCompression,
	}
}

// manifest is stored as the first archive entry.
type manifest struct {
	DatabaseType string            `json:"database_type"`
	CreatedAt    time.Time         `json:"created_at"`
	Checksums    map[string]string `json:"checksums"`
}

// CreateBackup writes every key of store into a compressed archive. The
// archive is logical, so a backup taken from one backend can be restored
// into another.
func CreateBackup(store database.Store, databaseType string, config BackupConfig, log zerolog.Logger) (*BackupInfo, error) {
	if err := os.MkdirAll(config.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	keys, err := store.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	values := make(map[string][]byte, len(keys))
	m := manifest{DatabaseType: databaseType, CreatedAt: time.Now().UTC(), Checksums: make(map[string]string, len(keys))}
	for _, key := range keys {
		value, found, err := store.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !found {
			continue
		}
		values[key] = value
		m.Checksums[key] = checksum(value)
	}

	backupFilename := fmt.Sprintf("cliqbook_%s_%s%s", databaseType, m.CreatedAt.Format("20060102_150405.000"), fileSuffix)
	backupPath := filepath.Join(config.BackupDir, backupFilename)

	if err := writeArchive(backupPath, config.CompressionLevel, m, values); err != nil {
		_ = os.Remove(backupPath)
		return nil, err
	}

	fileInfo, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup file: %w", err)
	}
	sum, err := calculateFileChecksum(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	info := &BackupInfo{
		Filename:     backupFilename,
		Path:         backupPath,
		Size:         fileInfo.Size(),
		Checksum:     sum,
		DatabaseType: databaseType,
		Keys:         len(values),
		CreatedAt:    m.CreatedAt,
	}
	log.Info().Str("path", backupPath).Int("keys", info.Keys).Int64("size", info.Size).Msg("backup created")

	if err := cleanupOldBackups(config.BackupDir, config.MaxBackups, log); err != nil {
		log.Warn().Err(err).Msg("failed to clean up old backups")
	}
	return info, nil
}

func writeArchive(path string, level int, m manifest, values map[string][]byte) error {
	backupFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer backupFile.Close()

	gzipWriter, err := gzip.NewWriterLevel(backupFile, level)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tarWriter := tar.NewWriter(gzipWriter)

	manifestData, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := addEntry(tarWriter, manifestName, manifestData, m.CreatedAt); err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := addEntry(tarWriter, keyPrefix+key, values[key], m.CreatedAt); err != nil {
			return err
		}
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	if err := backupFile.Close(); err != nil {
		return fmt.Errorf("failed to close backup file: %w", err)
	}
	return nil
}

func addEntry(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  modTime,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// RestoreBackup loads a backup archive into store. With verify set, every key
// is checked against the manifest before anything is written. Keys present in
// the store but absent from the backup are removed so the store matches the
// snapshot.
func RestoreBackup(backupPath string, store database.Store, verify bool, log zerolog.Logger) (int, error) {
	m, values, err := readArchive(backupPath)
	if err != nil {
		return 0, err
	}

	if verify {
		for key, value := range values {
			want, ok := m.Checksums[key]
			if !ok || want != checksum(value) {
				return 0, fmt.Errorf("%s: %w", key, ErrChecksumMismatch)
			}
		}
		if len(values) != len(m.Checksums) {
			return 0, fmt.Errorf("archive has %d keys, manifest lists %d: %w", len(values), len(m.Checksums), ErrChecksumMismatch)
		}
	}

	existing, err := store.Keys()
	if err != nil {
		return 0, fmt.Errorf("failed to list keys: %w", err)
	}
	for _, key := range existing {
		if _, ok := values[key]; ok {
			continue
		}
		if err := store.Remove(key); err != nil {
			return 0, fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	for key, value := range values {
		if err := store.Set(key, value); err != nil {
			return 0, fmt.Errorf("failed to restore %s: %w", key, err)
		}
	}
	log.Info().Str("path", backupPath).Int("keys", len(values)).Str("source_type", m.DatabaseType).Msg("backup restored")
	return len(values), nil
}

func readArchive(path string) (manifest, map[string][]byte, error) {
	var m manifest
	backupFile, err := os.Open(path)
	if err != nil {
		return m, nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer backupFile.Close()

	gzipReader, err := gzip.NewReader(backupFile)
	if err != nil {
		return m, nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	values := make(map[string][]byte)
	sawManifest := false
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return m, nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tarReader)
		if err != nil {
			return m, nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		switch {
		case header.Name == manifestName:
			if err := json.Unmarshal(data, &m); err != nil {
				return m, nil, fmt.Errorf("failed to decode manifest: %w", err)
			}
			sawManifest = true
		case strings.HasPrefix(header.Name, keyPrefix):
			key := strings.TrimPrefix(header.Name, keyPrefix)
			if key == "" || strings.Contains(key, "/") {
				return m, nil, fmt.Errorf("invalid key entry %q", header.Name)
			}
			values[key] = data
		}
	}
	if !sawManifest {
		return m, nil, fmt.Errorf("%s: missing %s", path, manifestName)
	}
	return m, values, nil
}

// ListBackups lists all available backups, newest first
func ListBackups(backupDir string) ([]BackupInfo, error) {
	var backups []BackupInfo

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		backupPath := filepath.Join(backupDir, entry.Name())
		sum, _ := calculateFileChecksum(backupPath)

		backups = append(backups, BackupInfo{
			Filename:     entry.Name(),
			Path:         backupPath,
			Size:         info.Size(),
			Checksum:     sum,
			DatabaseType: typeFromFilename(entry.Name()),
			CreatedAt:    info.ModTime(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].Filename > backups[j].Filename
	})
	return backups, nil
}

func typeFromFilename(name string) string {
	parts := strings.SplitN(strings.TrimPrefix(name, "cliqbook_"), "_", 2)
	if len(parts) == 2 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

// DeleteBackup deletes a specific backup file
func DeleteBackup(backupPath string) error {
	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// calculateFileChecksum calculates SHA256 checksum of a file
func calculateFileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// cleanupOldBackups removes the oldest backups beyond maxBackups.
func cleanupOldBackups(backupDir string, maxBackups int, log zerolog.Logger) error {
	if maxBackups <= 0 {
		return nil
	}
	backups, err := ListBackups(backupDir)
	if err != nil {
		return err
	}
	for _, old := range backups[min(maxBackups, len(backups)):] {
		if err := os.Remove(old.Path); err != nil {
			log.Warn().Err(err).Str("file", old.Filename).Msg("failed to delete old backup")
		}
	}
	return nil
}
