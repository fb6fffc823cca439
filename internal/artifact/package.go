package artifact

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"webweaver/pkg/logger"
)

// Package 把清单里的文件按文件名（不含目录）打进工作区固定位置的 zip，覆盖旧包
func (w Workspace) Package(manifest Manifest) (string, error) {
	if err := w.Ensure(); err != nil {
		return "", err
	}

	archivePath := w.ArchivePath()
	tempPath := archivePath + ".tmp"

	if err := writeArchive(tempPath, manifest); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("%w: %v", ErrPackage, err)
	}
	if err := os.Rename(tempPath, archivePath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("%w: %v", ErrPackage, err)
	}

	logger.Infof("Packaged %d files into %s", len(manifest), archivePath)
	return archivePath, nil
}

func writeArchive(path string, manifest Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(f)
	seen := make(map[string]string, len(manifest))
	for _, file := range manifest {
		name := filepath.Base(file)
		if prev, ok := seen[name]; ok {
			zw.Close()
			f.Close()
			return fmt.Errorf("duplicate entry %s: %s and %s", name, prev, file)
		}
		seen[name] = file
		if err := addFile(zw, file); err != nil {
			zw.Close()
			f.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
