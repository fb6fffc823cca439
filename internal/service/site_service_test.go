package service

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"webweaver/internal/artifact"
	"webweaver/internal/imagesearch"
	"webweaver/internal/model"
	"webweaver/internal/publish"
	"webweaver/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	reply string
	err   error
	got   []Instruction
	wait  time.Duration
}

func (f *fakeDriver) Generate(ctx context.Context, in Instruction) (string, error) {
	f.got = append(f.got, in)
	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

type fakeImages struct{}

func (fakeImages) Lookup(ctx context.Context, query string) imagesearch.Result {
	return imagesearch.Result{URL: "https://img.test/hero.jpg", Source: imagesearch.SourceLookup}
}

type fakePublisher struct {
	err  error
	args []string
}

func (p *fakePublisher) Publish(ctx context.Context, genID, archivePath string) (string, error) {
	p.args = append(p.args, genID, archivePath)
	if p.err != nil {
		return "", p.err
	}
	return "s3://bucket/sites/" + genID + "/" + filepath.Base(archivePath), nil
}

type fixture struct {
	svc    *SiteService
	driver *fakeDriver
	store  *storage.MemoryStorage
	root   string
}

func newFixture(t *testing.T, reply string, pub *fakePublisher) *fixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), "outputs")
	driver := &fakeDriver{reply: reply}
	store := storage.NewMemoryStorage()
	writer := artifact.NewWriter(artifact.NewWorkspace(root, ""), fakeImages{})

	var publisher publish.Publisher
	if pub != nil {
		publisher = pub
	}
	svc := NewSiteService(driver, writer, store, publisher, 0)
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 9, 30, 0, 123456000, time.Local) }
	return &fixture{svc: svc, driver: driver, store: store, root: root}
}

func TestGenerateHTMLSite(t *testing.T) {
	f := newFixture(t, siteReply, nil)

	report, err := f.svc.Generate(context.Background(), &model.GenerateRequest{
		Prompt: "A cafe website with an About page",
		Theme:  "dark",
		Header: "Fresh Bites",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSucceeded, report.Status)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "restaurant", report.Domain)
	assert.Equal(t, "html", report.Target)
	assert.Equal(t, []string{"index.html", "style.css", "script.js", "about.html"}, report.Files)
	assert.Equal(t, map[string]int{"html": 1, "css": 1, "js": 1, "jsx": 0, "others": 0}, report.Fragments)
	assert.Equal(t, filepath.Join(f.root, artifact.DefaultArchiveName), report.Archive)
	require.NotNil(t, report.HeroImage)
	assert.Equal(t, "https://img.test/hero.jpg", report.HeroImage.URL)
	assert.Empty(t, report.Warnings)

	require.Len(t, f.driver.got, 1)
	assert.Equal(t, "Dark", f.driver.got[0].Theme)
	assert.Equal(t, "Fresh Bites", f.driver.got[0].Header)

	index, err := os.ReadFile(filepath.Join(f.root, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<section id="hero" style="background-image: url('https://img.test/hero.jpg');`)
	assert.Contains(t, string(index), `<a href="about.html">About</a>`)

	zr, err := zip.OpenReader(report.Archive)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 4)

	records, err := f.store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A cafe website with an About page", records[0].Prompt)
	assert.Equal(t, siteReply, records[0].Response)
	assert.Equal(t, "2025-07-01T09:30:00.123456", records[0].Timestamp)
}

func TestGenerateReactTarget(t *testing.T) {
	f := newFixture(t, "```jsx\nexport default function App(){return <div/>}\n```", nil)

	report, err := f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "react portfolio"})
	require.NoError(t, err)
	assert.Equal(t, "react", report.Target)
	assert.Equal(t, []string{"App.jsx"}, report.Files)
}

func TestGenerateValidation(t *testing.T) {
	f := newFixture(t, siteReply, nil)

	_, err := f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "   "})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "shop", Theme: "neon"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, f.driver.got)
}

func TestGenerateAgentFailure(t *testing.T) {
	f := newFixture(t, "", nil)
	f.driver.err = errors.New("upstream 503")

	report, err := f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "blog"})
	require.ErrorIs(t, err, ErrAgentFailed)
	require.NotNil(t, report)
	assert.Equal(t, model.StatusFailed, report.Status)
	assert.Equal(t, "Agent failed to generate website: upstream 503", report.Message)

	_, statErr := os.Stat(filepath.Join(f.root, "index.html"))
	assert.True(t, os.IsNotExist(statErr))
	records, _ := f.store.List()
	assert.Empty(t, records)
}

func TestGenerateTimeout(t *testing.T) {
	f := newFixture(t, siteReply, nil)
	f.driver.wait = time.Second
	f.svc.timeout = 20 * time.Millisecond

	report, err := f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "blog"})
	require.ErrorIs(t, err, ErrAgentFailed)
	assert.Contains(t, report.Message, "deadline exceeded")
}

func TestGenerateFilesystemFailure(t *testing.T) {
	f := newFixture(t, siteReply, nil)
	require.NoError(t, os.WriteFile(f.root, []byte("not a dir"), 0644))

	_, err := f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "blog"})
	assert.ErrorIs(t, err, artifact.ErrWrite)
}

func TestGeneratePublish(t *testing.T) {
	pub := &fakePublisher{}
	f := newFixture(t, siteReply, pub)

	report, err := f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "agency"})
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/sites/"+report.ID+"/website_package.zip", report.PublishedTo)
	assert.Equal(t, []string{report.ID, report.Archive}, pub.args)

	pub.err = errors.New("access denied")
	report, err = f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "agency"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, report.Status)
	assert.Empty(t, report.PublishedTo)
	assert.Contains(t, report.Warnings, "publish failed: access denied")
}

func TestGenerateProgress(t *testing.T) {
	f := newFixture(t, siteReply, nil)
	pm := NewProgressManager("p")

	_, err := f.svc.Generate(WithProgress(context.Background(), pm), &model.GenerateRequest{Prompt: "blog"})
	require.NoError(t, err)
	pm.Close()

	var stages []string
	for ev := range pm.Events() {
		stages = append(stages, ev.Stage)
	}
	assert.Equal(t, []string{"agent", "extract", "write", "package"}, stages)
}

func TestHistoryAndRecords(t *testing.T) {
	f := newFixture(t, siteReply, nil)
	ctx := context.Background()

	long := "Build me a modern landing page for a bakery in Lisbon"
	_, err := f.svc.Generate(ctx, &model.GenerateRequest{Prompt: long})
	require.NoError(t, err)
	_, err = f.svc.Generate(ctx, &model.GenerateRequest{Prompt: "café"})
	require.NoError(t, err)

	items, err := f.svc.History()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, long[:30]+"...", items[0].Label)
	assert.Equal(t, "café...", items[1].Label)
	assert.Equal(t, 1, items[1].Index)

	rec, err := f.svc.Record(1)
	require.NoError(t, err)
	assert.Equal(t, "café", rec.Prompt)

	require.NoError(t, f.svc.DeleteRecord(0))
	_, err = f.svc.Record(1)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
	assert.ErrorIs(t, f.svc.DeleteRecord(5), storage.ErrRecordNotFound)
}

func TestLabelCountsCharacters(t *testing.T) {
	assert.Equal(t, strings.Repeat("é", 30)+"...", label(strings.Repeat("é", 40)))
	assert.Equal(t, "...", label(""))
}

func TestPreview(t *testing.T) {
	f := newFixture(t, "", nil)
	_, err := f.svc.Preview(LatestIndex)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	require.NoError(t, f.store.Append(model.NewChatRecord("first", "```html\n<p>one</p>\n```", time.Now())))
	require.NoError(t, f.store.Append(model.NewChatRecord("second", siteReply, time.Now())))

	// 预览不能覆盖已写出的文件
	require.NoError(t, os.MkdirAll(f.root, 0755))
	indexPath := filepath.Join(f.root, "index.html")
	require.NoError(t, os.WriteFile(indexPath, []byte("original"), 0644))

	p, err := f.svc.Preview(LatestIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index)
	assert.Equal(t, "second", p.Prompt)
	assert.Contains(t, p.Content, "<title>Web Preview</title>")
	assert.Contains(t, p.Content, "<style>\nbody{}\n  </style>")
	assert.Contains(t, p.Content, "<script>\nconsole.log(1)\n  </script>")
	assert.Contains(t, p.Content, `<section id="hero">Hi</section>`)
	assert.NotContains(t, p.Content, "<nav>")
	assert.NotContains(t, p.Content, "style.css")
	assert.Equal(t, "body{}", p.CSS)

	p, err = f.svc.Preview(0)
	require.NoError(t, err)
	assert.Equal(t, "first", p.Prompt)
	assert.Contains(t, p.Content, "<p>one</p>")

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	_, err = f.svc.Preview(9)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestPreviewJoinsFragmentsLikeWriter(t *testing.T) {
	f := newFixture(t, "", nil)
	reply := "```css\na{}\n```\n```css\nb{}\n```\n```js\nx()\n```\n```js\ny()\n```"
	require.NoError(t, f.store.Append(model.NewChatRecord("two blocks", reply, time.Now())))

	p, err := f.svc.Preview(LatestIndex)
	require.NoError(t, err)
	assert.Equal(t, "a{}\n\nb{}", p.CSS)
	assert.Equal(t, "x()\n\ny()", p.JS)
	assert.Contains(t, p.Content, "<style>\n"+p.CSS+"\n  </style>")
	assert.Contains(t, p.Content, "<script>\n"+p.JS+"\n  </script>")
}

func TestHintsAndReset(t *testing.T) {
	f := newFixture(t, siteReply, nil)

	h := f.svc.Hints("online shop for shoes")
	assert.Equal(t, "ecommerce", h.Domain)
	assert.Contains(t, h.Placeholders.Header, "UrbanStyle")
	assert.Len(t, h.Themes, 4)

	_, err := f.svc.Generate(context.Background(), &model.GenerateRequest{Prompt: "shop"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Reset())

	_, err = os.Stat(filepath.Join(f.root, "index.html"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.root, "style.css"))
	assert.NoError(t, err)

	// 重复 Reset 不报错
	assert.NoError(t, f.svc.Reset())
}
