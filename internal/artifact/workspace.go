// Package artifact 把提取出的片段写成站点文件，并打包成 zip
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const DefaultArchiveName = "website_package.zip"

var (
	ErrWrite   = errors.New("artifact write failed")
	ErrPackage = errors.New("artifact package failed")
)

// Workspace 输出目录。写入和打包都只在 Root 下进行
type Workspace struct {
	Root        string
	ArchiveName string
}

func NewWorkspace(root, archiveName string) Workspace {
	if archiveName == "" {
		archiveName = DefaultArchiveName
	}
	return Workspace{Root: root, ArchiveName: archiveName}
}

func (w Workspace) Path(name string) string {
	return filepath.Join(w.Root, name)
}

func (w Workspace) ArchivePath() string {
	return w.Path(w.ArchiveName)
}

// Ensure 创建输出目录
func (w Workspace) Ensure() error {
	if err := os.MkdirAll(w.Root, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrWrite, w.Root, err)
	}
	return nil
}

// Remove 删除工作区里的单个文件，不存在时忽略
func (w Workspace) Remove(name string) error {
	err := os.Remove(w.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove %s: %v", ErrWrite, name, err)
	}
	return nil
}

// Manifest 一次生成写出的文件路径，按写入顺序，主文档在前
type Manifest []string

// BaseNames 去掉目录后的文件名
func (m Manifest) BaseNames() []string {
	names := make([]string, len(m))
	for i, p := range m {
		names[i] = filepath.Base(p)
	}
	return names
}
