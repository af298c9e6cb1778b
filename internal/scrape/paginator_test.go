package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// listingPage 生成含指定商家名称的搜索结果页
func listingPage(names ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, name := range names {
		fmt.Fprintf(&b, `<div class="listing"><h3>%s</h3><span class="phone">514-555-0001</span></div>`, name)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// newTestPaginator 创建指向httptest服务器的翻页聚合器
func newTestPaginator(baseURL string, stopOnEmpty bool) *Paginator {
	return NewPaginator(
		newTestFetcher(testScrapeConfig()),
		NewListingParser("pagesjaunes.ca"),
		baseURL,
		stopOnEmpty,
	)
}

func TestPaginator_BuildSearchURL(t *testing.T) {
	p := newTestPaginator("https://www.pagesjaunes.ca", false)

	tests := []struct {
		name     string
		query    string
		location string
		page     int
		want     string
	}{
		{
			"无地点",
			"plumber", "", 1,
			"https://www.pagesjaunes.ca/search/si/1/plumber",
		},
		{
			"带地点",
			"plumber", "Montreal QC", 2,
			"https://www.pagesjaunes.ca/search/si/2/plumber/Montreal%20QC",
		},
		{
			"关键词含空格",
			"plomberie urgence", "", 3,
			"https://www.pagesjaunes.ca/search/si/3/plomberie%20urgence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.BuildSearchURL(tt.query, tt.location, tt.page); got != tt.want {
				t.Errorf("BuildSearchURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPaginator_CollectAllPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search/si/1/"):
			w.Write([]byte(listingPage("Alpha", "Beta")))
		case strings.Contains(r.URL.Path, "/search/si/2/"):
			w.Write([]byte(listingPage("Gamma")))
		default:
			w.Write([]byte(listingPage()))
		}
	}))
	defer server.Close()

	p := newTestPaginator(server.URL, false)

	records, failed, err := p.Collect(context.Background(), "plumber", "", 2)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(failed) != 0 {
		t.Errorf("失败页数 = %d, want 0", len(failed))
	}

	// 聚合顺序为页序+页内顺序
	want := []string{"Alpha", "Beta", "Gamma"}
	if len(records) != len(want) {
		t.Fatalf("记录数 = %d, want %d", len(records), len(want))
	}
	for i, name := range want {
		if records[i].Name != name {
			t.Errorf("records[%d].Name = %q, want %q", i, records[i].Name, name)
		}
	}

	if p.PagesFetched() != 2 {
		t.Errorf("PagesFetched() = %d, want 2", p.PagesFetched())
	}
}

func TestPaginator_SkipsFailedMiddlePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search/si/2/"):
			w.WriteHeader(http.StatusNotFound)
		case strings.Contains(r.URL.Path, "/search/si/1/"):
			w.Write([]byte(listingPage("Alpha")))
		case strings.Contains(r.URL.Path, "/search/si/3/"):
			w.Write([]byte(listingPage("Gamma")))
		default:
			w.Write([]byte(listingPage()))
		}
	}))
	defer server.Close()

	p := newTestPaginator(server.URL, false)

	records, failed, err := p.Collect(context.Background(), "plumber", "", 3)
	if err != nil {
		t.Fatalf("中间页失败不应中断整体: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("记录数 = %d, want 2", len(records))
	}
	if records[0].Name != "Alpha" || records[1].Name != "Gamma" {
		t.Errorf("失败页跳过后顺序应保持: %v, %v", records[0].Name, records[1].Name)
	}

	if len(failed) != 1 {
		t.Fatalf("失败页数 = %d, want 1", len(failed))
	}
	if failed[0].Page != 2 {
		t.Errorf("失败页码 = %d, want 2", failed[0].Page)
	}
	if failed[0].ErrorType != "http_error" {
		t.Errorf("ErrorType = %q, want http_error", failed[0].ErrorType)
	}
}

func TestPaginator_FirstPageFailureFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	p := newTestPaginator(server.URL, false)

	records, _, err := p.Collect(context.Background(), "plumber", "", 3)
	if err == nil {
		t.Fatal("首页失败应为致命错误")
	}
	if len(records) != 0 {
		t.Errorf("首页失败时不应有记录: %d", len(records))
	}
}

func TestPaginator_EmptyQuery(t *testing.T) {
	p := newTestPaginator("https://www.pagesjaunes.ca", false)

	if _, _, err := p.Collect(context.Background(), "  ", "", 3); err == nil {
		t.Error("空关键词应在任何网络请求之前被拒绝")
	}
	if _, _, err := p.Collect(context.Background(), "plumber", "", 0); err == nil {
		t.Error("非正页数应被拒绝")
	}
}

func TestPaginator_StopOnEmpty(t *testing.T) {
	var maxPage int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search/si/1/"):
			maxPage = 1
			w.Write([]byte(listingPage("Alpha")))
		case strings.Contains(r.URL.Path, "/search/si/2/"):
			maxPage = 2
			w.Write([]byte(listingPage()))
		default:
			maxPage = 3
			w.Write([]byte(listingPage("Ghost")))
		}
	}))
	defer server.Close()

	p := newTestPaginator(server.URL, true)

	records, _, err := p.Collect(context.Background(), "plumber", "", 5)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(records) != 1 || records[0].Name != "Alpha" {
		t.Errorf("空页后应提前结束, records = %v", records)
	}
	if maxPage > 2 {
		t.Errorf("第2页为空后不应请求第%d页", maxPage)
	}
}

func TestPaginator_ContinuesPastEmptyByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search/si/2/"):
			w.Write([]byte(listingPage()))
		default:
			w.Write([]byte(listingPage("Alpha")))
		}
	}))
	defer server.Close()

	p := newTestPaginator(server.URL, false)

	records, _, err := p.Collect(context.Background(), "plumber", "", 3)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	// 默认不因空页提前结束
	if len(records) != 2 {
		t.Errorf("记录数 = %d, want 2 (第1,3页各一条)", len(records))
	}
}

func TestPaginator_Idempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage("Alpha", "Beta")))
	}))
	defer server.Close()

	p := newTestPaginator(server.URL, false)

	first, _, err := p.Collect(context.Background(), "plumber", "", 2)
	if err != nil {
		t.Fatalf("第一次Collect() error = %v", err)
	}
	second, _, err := p.Collect(context.Background(), "plumber", "", 2)
	if err != nil {
		t.Fatalf("第二次Collect() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("两次结果长度不一致: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("records[%d]不一致: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPaginator_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage("Alpha")))
	}))
	defer server.Close()

	p := newTestPaginator(server.URL, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Collect(ctx, "plumber", "", 3)
	if err == nil {
		t.Error("取消的ctx应返回错误")
	}
}
