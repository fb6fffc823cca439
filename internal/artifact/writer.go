package artifact

import (
	"context"
	"fmt"
	"os"

	"webweaver/internal/classify"
	"webweaver/internal/fence"
	"webweaver/internal/imagesearch"
	"webweaver/internal/metrics"
	"webweaver/internal/page"
	"webweaver/pkg/logger"
)

const (
	IndexFile     = "index.html"
	ComponentFile = "App.jsx"

	// FragmentSeparator 同类片段之间的分隔
	FragmentSeparator = "\n\n"
)

type Output struct {
	Manifest  Manifest
	Target    classify.Target
	HeroImage imagesearch.Result
	Warnings  []string
}

type Writer struct {
	ws     Workspace
	images imagesearch.Searcher
}

// NewWriter images 为 nil 时总是使用占位图
func NewWriter(ws Workspace, images imagesearch.Searcher) *Writer {
	return &Writer{ws: ws, images: images}
}

func (w *Writer) Workspace() Workspace {
	return w.ws
}

// Write 根据提示词选择输出目标并写文件，每个文件整体覆盖。
// 目标与实际提取到的片段不一致时尽力而为，只记录警告。
func (w *Writer) Write(ctx context.Context, fragments fence.FragmentSet, prompt string) (*Output, error) {
	if err := w.ws.Ensure(); err != nil {
		return nil, err
	}

	out := &Output{
		Target:    classify.DetectTarget(prompt),
		HeroImage: w.lookupHero(ctx, prompt),
	}

	var files []stagedFile
	switch out.Target {
	case classify.TargetReact:
		files = w.stageReact(fragments, out)
	default:
		files = w.stageHTML(fragments, prompt, out)
	}
	manifest, err := w.commit(files)
	if err != nil {
		return nil, err
	}
	out.Manifest = manifest

	metrics.ArtifactsWritten.WithLabelValues(string(out.Target)).Add(float64(len(out.Manifest)))
	logger.WithFields(logger.Fields{
		"target": out.Target,
		"files":  out.Manifest.BaseNames(),
		"hero":   out.HeroImage.Source,
	}).Info("Artifacts written")
	return out, nil
}

func (w *Writer) lookupHero(ctx context.Context, prompt string) imagesearch.Result {
	if w.images == nil {
		return imagesearch.Result{
			URL:    imagesearch.DefaultFallbackURL,
			Source: imagesearch.SourceFallback,
			Reason: "image search disabled",
		}
	}
	return w.images.Lookup(ctx, prompt)
}

// stagedFile 待写入的文件，全部就绪后才替换工作区里的旧文件
type stagedFile struct {
	name    string
	content string
}

func (w *Writer) stageReact(fragments fence.FragmentSet, out *Output) []stagedFile {
	code := fragments.Join(fence.KeyJSX, FragmentSeparator)
	if code == "" {
		code = fragments.Join(fence.KeyJS, FragmentSeparator)
	}
	if code == "" {
		out.Warnings = append(out.Warnings, "react target selected but no jsx or js fragments were found; "+ComponentFile+" is empty")
	}
	return []stagedFile{{name: ComponentFile, content: code}}
}

func (w *Writer) stageHTML(fragments fence.FragmentSet, prompt string, out *Output) []stagedFile {
	css := fragments.Join(fence.KeyCSS, FragmentSeparator)
	js := fragments.Join(fence.KeyJS, FragmentSeparator)
	secondary := classify.SecondaryPages(prompt)
	nav := page.NavLinks(secondary)

	index := page.Assemble(page.Spec{
		Title:        classify.PageHome.Title,
		Body:         fragments.Join(fence.KeyHTML, FragmentSeparator),
		CSS:          css,
		JS:           js,
		NavLinks:     nav,
		HeroImageURL: out.HeroImage.URL,
	}, page.Linked)

	files := []stagedFile{
		{name: IndexFile, content: index},
		{name: page.StyleFile, content: css},
		{name: page.ScriptFile, content: js},
	}

	for _, p := range secondary {
		doc := page.Assemble(page.Spec{
			Title:        p.Title,
			Body:         p.Body,
			CSS:          css,
			JS:           js,
			NavLinks:     nav,
			HeroImageURL: out.HeroImage.URL,
		}, page.Linked)
		files = append(files, stagedFile{name: p.FileName, content: doc})
	}
	return files
}

// commit 先把所有文件写成临时文件，全部成功后再逐个 rename 覆盖。
// 任何一步失败都清理临时文件，上一次生成的文件保持不变。
func (w *Writer) commit(files []stagedFile) (Manifest, error) {
	var temps []string
	cleanup := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		path := w.ws.Path(f.name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			cleanup()
			return nil, fmt.Errorf("%w: %s: target is a directory", ErrWrite, f.name)
		}
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, []byte(f.content), 0644); err != nil {
			cleanup()
			return nil, fmt.Errorf("%w: %s: %v", ErrWrite, f.name, err)
		}
		temps = append(temps, tmp)
	}

	manifest := make(Manifest, 0, len(files))
	for i, f := range files {
		path := w.ws.Path(f.name)
		if err := os.Rename(temps[i], path); err != nil {
			temps = temps[i:]
			cleanup()
			return nil, fmt.Errorf("%w: %s: %v", ErrWrite, f.name, err)
		}
		manifest = append(manifest, path)
	}
	return manifest, nil
}
