package sitebackup

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// writeTar archives srcDir into dest with entry names relative to srcDir's
// parent, so ".../public/files/a.png" is stored as "files/a.png". A missing
// srcDir yields an empty archive.
func (g *Generator) writeTar(ctx context.Context, srcDir, dest string) (err error) {
	out, err := g.fs.Create(dest)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()

	tw := tar.NewWriter(out)

	exists, err := afero.DirExists(g.fs, srcDir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", srcDir, err)
	}
	if !exists {
		g.logger.Warnf("Files directory %s does not exist, writing an empty archive", srcDir)
		return tw.Close()
	}

	base := filepath.Dir(filepath.Clean(srcDir))
	err = afero.Walk(g.fs, srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return addToTar(g.fs, tw, base, path, info)
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", srcDir, err)
	}

	return tw.Close()
}

func addToTar(fs afero.Fs, tw *tar.Writer, base, path string, info os.FileInfo) error {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", path, err)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	if info.IsDir() {
		header.Name += "/"
	}

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}
