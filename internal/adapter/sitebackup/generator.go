package sitebackup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/semmidev/offsite/internal/domain"
	"github.com/spf13/afero"
)

const (
	TimestampLayout = "20060102_150405"

	suffixRawDatabase  = "-database.sql"
	suffixDatabase     = "-database.sql.gz"
	suffixSiteConfig   = "-site_config_backup.json"
	suffixPublicFiles  = "-files.tar"
	suffixPrivateFiles = "-private-files.tar"

	// Artifacts are written under this suffix and renamed into place once
	// complete. No artifact matcher accepts it.
	suffixPartial = ".partial"

	// A non-forced backup reuses an existing dump younger than this.
	recentBackupAge = 6 * time.Hour
)

type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type Options struct {
	Dir              string
	Site             string
	SiteConfigPath   string
	PublicFilesPath  string
	PrivateFilesPath string
	Compress         bool
}

// Generator writes site backups into a single backups directory using the
// "<timestamp>-<site>-<kind>" naming scheme.
type Generator struct {
	fs         afero.Fs
	db         domain.Database
	compressor domain.Compressor
	logger     Logger
	opts       Options
	now        func() time.Time
}

func New(fs afero.Fs, db domain.Database, compressor domain.Compressor, logger Logger, opts Options) (*Generator, error) {
	if err := fs.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}
	return &Generator{
		fs:         fs,
		db:         db,
		compressor: compressor,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}, nil
}

func (g *Generator) prefix() string {
	slug := strings.ReplaceAll(g.opts.Site, ".", "_")
	return g.now().Format(TimestampLayout) + "-" + slug
}

func (g *Generator) path(name string) string {
	return filepath.Join(g.opts.Dir, name)
}

func (g *Generator) NewBackup(ctx context.Context, opts domain.BackupOptions) (domain.ArtifactSet, error) {
	if !opts.Force {
		if set, ok := g.recentBackup(ctx, opts.IncludeFiles); ok {
			g.logger.Infof("Reusing recent backup %s", set.Database)
			return set, nil
		}
	}

	prefix := g.prefix()
	var set domain.ArtifactSet
	var err error

	if set.Database, err = g.dumpDatabase(ctx, prefix); err != nil {
		return domain.ArtifactSet{}, err
	}
	if set.SiteConfig, err = g.snapshotConfig(prefix); err != nil {
		return domain.ArtifactSet{}, err
	}
	if opts.IncludeFiles {
		if set.PublicFiles, set.PrivateFiles, err = g.archiveFiles(ctx, prefix); err != nil {
			return domain.ArtifactSet{}, err
		}
	}

	g.logger.Infof("Backup created: %s", filepath.Base(set.Database))
	return set, nil
}

func (g *Generator) recentBackup(ctx context.Context, withFiles bool) (domain.ArtifactSet, bool) {
	set, err := g.LatestBackup(ctx, withFiles)
	if err != nil || set.Database == "" || set.SiteConfig == "" || (withFiles && !set.HasFiles()) {
		return domain.ArtifactSet{}, false
	}
	info, err := g.fs.Stat(set.Database)
	if err != nil {
		return domain.ArtifactSet{}, false
	}
	return set, g.now().Sub(info.ModTime()) < recentBackupAge
}

func (g *Generator) dumpDatabase(ctx context.Context, prefix string) (string, error) {
	if err := g.db.Ping(ctx); err != nil {
		return "", fmt.Errorf("database %s unreachable: %w", g.db.GetName(), err)
	}
	g.logger.Infof("Dumping %s database %s", g.db.GetType(), g.db.GetName())

	raw := g.path(prefix + suffixRawDatabase)
	if !g.opts.Compress {
		if err := g.writeAtomic(raw, func(tmp string) error { return g.db.Backup(ctx, tmp) }); err != nil {
			return "", fmt.Errorf("dump database: %w", err)
		}
		return raw, nil
	}

	rawTmp := raw + suffixPartial
	defer g.discard(rawTmp)
	if err := g.db.Backup(ctx, rawTmp); err != nil {
		return "", fmt.Errorf("dump database: %w", err)
	}

	compressed := g.path(prefix + suffixDatabase)
	err := g.writeAtomic(compressed, func(tmp string) error { return g.compressor.Compress(rawTmp, tmp) })
	if err != nil {
		return "", fmt.Errorf("compress database dump: %w", err)
	}
	return compressed, nil
}

func (g *Generator) snapshotConfig(prefix string) (string, error) {
	src, err := g.fs.Open(g.opts.SiteConfigPath)
	if err != nil {
		return "", fmt.Errorf("open site config: %w", err)
	}
	defer src.Close()

	dest := g.path(prefix + suffixSiteConfig)
	err = g.writeAtomic(dest, func(tmp string) error {
		out, err := g.fs.Create(tmp)
		if err != nil {
			return fmt.Errorf("create site config snapshot: %w", err)
		}
		if _, err := io.Copy(out, src); err != nil {
			out.Close()
			return fmt.Errorf("copy site config: %w", err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("close site config snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

// writeAtomic runs write against a temporary name next to dest and renames
// the result to dest only when write succeeds. A failed write leaves
// nothing behind.
func (g *Generator) writeAtomic(dest string, write func(tmp string) error) error {
	tmp := dest + suffixPartial
	if err := write(tmp); err != nil {
		g.discard(tmp)
		return err
	}
	if err := g.fs.Rename(tmp, dest); err != nil {
		g.discard(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}

func (g *Generator) discard(path string) {
	if err := g.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		g.logger.Warnf("Could not remove incomplete file %s: %v", path, err)
	}
}

func (g *Generator) archiveFiles(ctx context.Context, prefix string) (string, string, error) {
	public := g.path(prefix + suffixPublicFiles)
	err := g.writeAtomic(public, func(tmp string) error { return g.writeTar(ctx, g.opts.PublicFilesPath, tmp) })
	if err != nil {
		return "", "", fmt.Errorf("archive public files: %w", err)
	}
	private := g.path(prefix + suffixPrivateFiles)
	err = g.writeAtomic(private, func(tmp string) error { return g.writeTar(ctx, g.opts.PrivateFilesPath, tmp) })
	if err != nil {
		g.discard(public)
		return "", "", fmt.Errorf("archive private files: %w", err)
	}
	return public, private, nil
}

// GenerateFilesBackup archives public and private files without a new
// database dump.
func (g *Generator) GenerateFilesBackup(ctx context.Context) error {
	public, private, err := g.archiveFiles(ctx, g.prefix())
	if err != nil {
		return err
	}
	g.logger.Infof("Files backup created: %s, %s", filepath.Base(public), filepath.Base(private))
	return nil
}

// LatestBackup returns the newest artifact of each kind. Missing kinds are
// left empty.
func (g *Generator) LatestBackup(ctx context.Context, withFiles bool) (domain.ArtifactSet, error) {
	entries, err := afero.ReadDir(g.fs, g.opts.Dir)
	if err != nil {
		return domain.ArtifactSet{}, fmt.Errorf("read backups directory: %w", err)
	}
	files := lo.Filter(entries, func(e os.FileInfo, _ int) bool { return !e.IsDir() })

	set := domain.ArtifactSet{
		Database:   g.newest(files, isDatabase),
		SiteConfig: g.newest(files, hasSuffix(suffixSiteConfig)),
	}
	if withFiles {
		set.PublicFiles = g.newest(files, isPublicFiles)
		set.PrivateFiles = g.newest(files, hasSuffix(suffixPrivateFiles))
	}
	return set, nil
}

func (g *Generator) newest(files []os.FileInfo, match func(string) bool) string {
	candidates := lo.Filter(files, func(f os.FileInfo, _ int) bool { return match(f.Name()) })
	if len(candidates) == 0 {
		return ""
	}
	latest := lo.MaxBy(candidates, func(a, b os.FileInfo) bool {
		if a.ModTime().Equal(b.ModTime()) {
			return a.Name() > b.Name()
		}
		return a.ModTime().After(b.ModTime())
	})
	return g.path(latest.Name())
}

// FileSize returns the size in bytes of a file on the backups filesystem.
func (g *Generator) FileSize(path string) (int64, error) {
	info, err := g.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func hasSuffix(suffix string) func(string) bool {
	return func(name string) bool { return strings.HasSuffix(name, suffix) }
}

func isDatabase(name string) bool {
	return strings.HasSuffix(name, suffixDatabase) || strings.HasSuffix(name, suffixRawDatabase)
}

// "-private-files.tar" also ends in "-files.tar".
func isPublicFiles(name string) bool {
	return strings.HasSuffix(name, suffixPublicFiles) && !strings.HasSuffix(name, suffixPrivateFiles)
}
