//go:build unit

package content

import (
	"context"
	"net/url"
	"path"
	"strings"
	"testing"
	"time"

	"go-site-importer/internal/assets"
	"go-site-importer/internal/logger"
)

// fakeFetcher resolves every asset to a predictable public path.
type fakeFetcher struct {
	calls   []string
	outcome assets.Outcome
}

var _ AssetFetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) Fetch(_ context.Context, absURL, dir string, _ assets.Cache) assets.Result {
	f.calls = append(f.calls, absURL)
	if f.outcome == assets.OutcomeFailed || f.outcome == assets.OutcomeSkippedHTML {
		return assets.Result{PublicPath: absURL, Outcome: f.outcome}
	}
	u, _ := url.Parse(absURL)
	return assets.Result{
		PublicPath: "/storage/" + dir + "/" + path.Base(u.Path),
		Outcome:    f.outcome,
	}
}

func newTestExtractor(t *testing.T) (*Extractor, *fakeFetcher) {
	t.Helper()
	base, err := url.Parse("http://old.example.ru")
	if err != nil {
		t.Fatal(err)
	}
	fetcher := &fakeFetcher{outcome: assets.OutcomeDownloaded}
	return NewExtractor(fetcher, base, DefaultLocator(), logger.Nop()), fetcher
}

const legacyPage = `<html><head>
<meta NAME="Description" content="About section A">
<meta name="KEYWORDS" content="а, б">
</head><body>
<div class="middle_second">
<table><tr>
<td class="left">navigation chrome</td>
<td valign="top">
<h1>  Раздел
А </h1>
<div class="date">Дата публикации: 05.02.2026</div>
<div class="print"><a href="#">Версия для печати</a></div>
<script>trackVisit();</script>
<style>.x{color:red}</style>
<p onclick="hijack()">Text with <a href="/about.html?tab=2">internal</a>,
<a href="http://other.example.com/page">external</a> and
<a href="/files/doc.pdf">a document</a>.</p>
<img src="/img/photo.jpg" alt="фото">
<video src="/video/v.mp4"></video>
</td>
</tr></table>
</div></body></html>`

func TestExtractor_Extract(t *testing.T) {
	e, fetcher := newTestExtractor(t)

	res, err := e.Extract(context.Background(), legacyPage, Options{
		DownloadImages: true,
		ImageDir:       "images/imported",
		FileDir:        "files/imported",
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected extracted content, got nil")
	}

	if res.Title != "Раздел А" {
		t.Errorf("expected collapsed title, got %q", res.Title)
	}
	if res.MetaDescription != "About section A" {
		t.Errorf("unexpected meta description %q", res.MetaDescription)
	}
	if res.MetaKeywords != "а, б" {
		t.Errorf("unexpected meta keywords %q", res.MetaKeywords)
	}

	want := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	if res.PublishedAt == nil || !res.PublishedAt.Equal(want) {
		t.Errorf("expected publication date %v, got %v", want, res.PublishedAt)
	}

	body := res.BodyHTML
	for _, gone := range []string{"<h1", "<script", "<style", "Версия для печати", "Дата публикации", "onclick"} {
		if strings.Contains(body, gone) {
			t.Errorf("expected %q to be removed from body:\n%s", gone, body)
		}
	}

	if !strings.Contains(body, `href="/about.html?tab=2"`) {
		t.Errorf("internal link not rewritten root-relative:\n%s", body)
	}
	if !strings.Contains(body, `href="http://other.example.com/page"`) {
		t.Errorf("external link must stay absolute:\n%s", body)
	}
	if !strings.Contains(body, `href="/storage/files/imported/doc.pdf"`) {
		t.Errorf("file link not relinked to storage:\n%s", body)
	}
	if !strings.Contains(body, `src="/storage/images/imported/photo.jpg"`) {
		t.Errorf("image not relinked to storage:\n%s", body)
	}
	if !strings.Contains(body, `src="http://old.example.ru/video/v.mp4"`) {
		t.Errorf("video source must be normalized but not downloaded:\n%s", body)
	}

	if len(res.Images) != 1 || res.Images[0] != "/storage/images/imported/photo.jpg" {
		t.Errorf("unexpected images list %v", res.Images)
	}
	if len(res.Files) != 1 || res.Files[0] != "/storage/files/imported/doc.pdf" {
		t.Errorf("unexpected files list %v", res.Files)
	}

	tally := res.Tally
	if tally.LinksInternal != 1 || tally.LinksExternal != 1 || tally.LinksFile != 1 {
		t.Errorf("unexpected link tally %+v", tally)
	}
	if tally.ImagesDownloaded != 1 || tally.FilesDownloaded != 1 {
		t.Errorf("unexpected download tally %+v", tally)
	}

	// The video URL must never reach the downloader.
	for _, call := range fetcher.calls {
		if strings.Contains(call, "v.mp4") {
			t.Errorf("video was downloaded by the extractor: %v", fetcher.calls)
		}
	}
}

func TestExtractor_NoContentRegion(t *testing.T) {
	e, _ := newTestExtractor(t)

	res, err := e.Extract(context.Background(), `<html><body><p>bare page</p></body></html>`, Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result for page without content container, got %+v", res)
	}
}

func TestExtractor_ImagesNotDownloadedWhenDisabled(t *testing.T) {
	e, fetcher := newTestExtractor(t)

	html := `<div class="middle_second"><h1>T</h1><img src="/img/a.png"></div>`
	res, err := e.Extract(context.Background(), html, Options{DownloadImages: false, ImageDir: "images/imported"})
	if err != nil {
		t.Fatal(err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("expected no downloads, got %v", fetcher.calls)
	}
	if !strings.Contains(res.BodyHTML, `src="http://old.example.ru/img/a.png"`) {
		t.Errorf("expected absolute image source, got:\n%s", res.BodyHTML)
	}
	if res.Tally.ImagesSkipped != 1 {
		t.Errorf("expected one skipped image, got %+v", res.Tally)
	}
}

func TestExtractor_FailedImageKeepsAbsoluteSource(t *testing.T) {
	e, fetcher := newTestExtractor(t)
	fetcher.outcome = assets.OutcomeFailed

	html := `<div class="middle_second"><h1>T</h1><img src="/img/gone.png"></div>`
	res, err := e.Extract(context.Background(), html, Options{DownloadImages: true, ImageDir: "images/imported"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.BodyHTML, `src="http://old.example.ru/img/gone.png"`) {
		t.Errorf("failed image should keep its absolute source:\n%s", res.BodyHTML)
	}
	if res.Tally.ImagesFailed != 1 || len(res.Images) != 0 {
		t.Errorf("unexpected failure accounting %+v images=%v", res.Tally, res.Images)
	}
}

func TestExtractor_FallbackPreviewImage(t *testing.T) {
	e, _ := newTestExtractor(t)

	// No image inside the content cell, but a sibling row carries one real
	// photo next to a decorative spacer.
	html := `<div class="middle_second"><table>
<tr><td><img src="/img/spacer.gif"><img src="/img/preview.jpg"></td></tr>
<tr><td valign="top"><h1>Новость</h1><p>Текст новости.</p></td></tr>
</table></div>`

	res, err := e.Extract(context.Background(), html, Options{DownloadImages: true, ImageDir: "images/imported"})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil {
		t.Fatal("expected content")
	}
	if !strings.HasPrefix(res.BodyHTML, `<img src="/storage/images/imported/preview.jpg"`) {
		t.Errorf("expected preview image prepended, got:\n%s", res.BodyHTML)
	}
	if len(res.Images) != 1 || res.Images[0] != "/storage/images/imported/preview.jpg" {
		t.Errorf("unexpected images list %v", res.Images)
	}
}

func TestExtractor_DateParseFailureIsTolerated(t *testing.T) {
	e, _ := newTestExtractor(t)

	html := `<div class="middle_second"><h1>T</h1><div class="date">вчера</div><p>x</p></div>`
	res, err := e.Extract(context.Background(), html, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.PublishedAt != nil {
		t.Errorf("expected nil date, got %v", res.PublishedAt)
	}
	if strings.Contains(res.BodyHTML, "вчера") {
		t.Errorf("date label must be consumed even when unparseable:\n%s", res.BodyHTML)
	}
}
