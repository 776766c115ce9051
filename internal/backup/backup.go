// Package backup snapshots the SQLite ledger and restores it.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/constants"
	"github.com/julianstephens/studyloop/internal/logger"
)

const stampLayout = "20060102-150405"

var backupName = regexp.MustCompile(`^` + regexp.QuoteMeta(constants.BackupFilePrefix) +
	`(\d{8}-\d{6})(?:-(\d+))?` + regexp.QuoteMeta(constants.BackupFileSuffix) + `$`)

// ErrNoDatabase is returned when there is nothing to snapshot.
var ErrNoDatabase = errors.New("database does not exist")

// Info describes one snapshot file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

func (i Info) Name() string { return filepath.Base(i.Path) }

type Manager struct {
	dbPath    string
	backupDir string
	keep      int
	clock     clock.Clock
}

// NewManager keeps snapshots in a backups directory next to the database.
func NewManager(dbPath string, c clock.Clock) *Manager {
	if c == nil {
		c = clock.System{}
	}
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		keep:      constants.MaxBackups,
		clock:     c,
	}
}

func (m *Manager) Dir() string { return m.backupDir }

// Create snapshots the database and prunes snapshots beyond the retention limit.
func (m *Manager) Create() (Info, error) {
	info, err := m.snapshot()
	if err != nil {
		return Info{}, err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "dir", m.backupDir, "error", err)
	}
	return info, nil
}

func (m *Manager) snapshot() (Info, error) {
	if _, err := os.Stat(m.dbPath); errors.Is(err, os.ErrNotExist) {
		return Info{}, fmt.Errorf("%w: %s", ErrNoDatabase, m.dbPath)
	}
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	ts := m.clock.Now().UTC()
	stamp := ts.Format(stampLayout)
	dest := filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+constants.BackupFileSuffix)
	for n := 1; fileExists(dest); n++ {
		if n > 100 {
			return Info{}, fmt.Errorf("failed to generate unique backup filename")
		}
		dest = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, stamp, n, constants.BackupFileSuffix))
	}

	if err := vacuumInto(m.dbPath, dest); err != nil {
		return Info{}, fmt.Errorf("failed to backup database: %w", err)
	}
	st, err := os.Stat(dest)
	if err != nil {
		return Info{}, err
	}
	logger.Info("Created backup", "path", dest, "size", st.Size())
	return Info{Path: dest, Timestamp: ts.Truncate(time.Second), Size: st.Size()}, nil
}

// vacuumInto writes a consistent copy even while other connections hold the
// database open. It falls back to a file copy on engines without VACUUM INTO.
func vacuumInto(src, dest string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		db.Close()
		return copyFile(src, dest)
	}
	return nil
}

// List returns snapshots newest first. Files that do not match the naming
// scheme are ignored.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	type ranked struct {
		Info
		seq int
	}
	var found []ranked
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := backupName.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		ts, err := time.Parse(stampLayout, match[1])
		if err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		seq := 0
		if match[2] != "" {
			fmt.Sscanf(match[2], "%d", &seq)
		}
		found = append(found, ranked{Info{Path: filepath.Join(m.backupDir, e.Name()), Timestamp: ts, Size: fi.Size()}, seq})
	}

	slices.SortFunc(found, func(a, b ranked) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return b.seq - a.seq
	})
	out := make([]Info, len(found))
	for i, r := range found {
		out[i] = r.Info
	}
	return out, nil
}

// Resolve accepts a snapshot path or a bare file name inside the backup dir.
func (m *Manager) Resolve(name string) string {
	if filepath.IsAbs(name) || fileExists(name) {
		return name
	}
	return filepath.Join(m.backupDir, filepath.Base(name))
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	var errs []error
	for _, b := range backups[min(m.keep, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove old backup %s: %w", b.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Restore replaces the database with the snapshot. The current database is
// snapshotted first, without rotation, and that snapshot is returned. The
// caller must close any open store before calling.
func (m *Manager) Restore(path string) (Info, error) {
	if !fileExists(path) {
		return Info{}, fmt.Errorf("backup file does not exist: %s", path)
	}
	if err := verify(path); err != nil {
		return Info{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous Info
	if fileExists(m.dbPath) {
		var err error
		if previous, err = m.snapshot(); err != nil {
			return Info{}, fmt.Errorf("failed to backup current database before restore: %w", err)
		}
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return previous, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return previous, fmt.Errorf("failed to restore database: %w", err)
	}
	// Stale WAL files would be replayed over the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(m.dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to remove stale journal", "path", m.dbPath+suffix, "error", err)
		}
	}
	logger.Info("Restored database", "from", path, "previous", previous.Path)
	return previous, nil
}

// verify checks that path is a SQLite database holding the progress ledger.
func verify(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'progress'`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return errors.New("not a studyloop database")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
