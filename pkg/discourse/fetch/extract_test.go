package fetch

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const articlePage = `<html><head><title>人民网</title></head><body>
<div class="nav">首页</div>
<h1>在会议上的讲话</h1>
<div class="d2txt_1">2021年03月05日 来源：人民网</div>
<div class="d2txt_con"><p>坚持守正创新。</p><p>推进 科技向善。</p></div>
<div>责任编辑：张三</div>
<div>相关链接</div>
<script>var x = "编辑";</script>
</body></html>`

func TestExtractArticle(t *testing.T) {
	ex, err := Extract(strings.NewReader(articlePage), "https://example.com/article/1")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ex.Title != "在会议上的讲话" {
		t.Errorf("title = %q", ex.Title)
	}
	if want := time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC); !ex.Date.Equal(want) || ex.DateErr != nil {
		t.Errorf("date = %v (%v), want %v", ex.Date, ex.DateErr, want)
	}
	want := "2021年03月05日 来源：人民网\n坚持守正创新。\n推进 科技向善。"
	if ex.Content != want {
		t.Errorf("content = %q, want %q", ex.Content, want)
	}
	if strings.Contains(ex.FullText, "var x") {
		t.Error("script body leaked into text")
	}
}

func TestExtractTitleFallbacks(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"h1 wins", `<title>T</title><h2>副标题</h2><h1>主标题</h1>`, "主标题"},
		{"empty h1 skipped", `<title>T</title><h1> </h1><h2>副标题</h2>`, "副标题"},
		{"title element", `<title>页面标题</title><p>正文</p>`, "页面标题"},
		{"url", `<p>正文</p>`, "https://example.com/article/9"},
		{"nested text", `<h1><span>习近平</span> <b>讲话</b></h1>`, "习近平讲话"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := Extract(strings.NewReader(tt.page), "https://example.com/article/9")
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if ex.Title != tt.want {
				t.Errorf("title = %q, want %q", ex.Title, tt.want)
			}
		})
	}
}

func TestExtractContentCutAtLeftmostMarker(t *testing.T) {
	page := `<h1>标题</h1><p>正文一</p><p>相关链接</p><p>正文二</p><p>责任编辑：王五</p>`
	ex, err := Extract(strings.NewReader(page), "u")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ex.Content != "正文一" {
		t.Errorf("content = %q, want 正文一", ex.Content)
	}
}

func TestExtractContentWithoutTitleOccurrence(t *testing.T) {
	// The URL fallback never occurs in the text, so all of it is kept.
	ex, err := Extract(strings.NewReader(`<p>全文内容</p>`), "https://example.com/article/1")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ex.Content != "全文内容" {
		t.Errorf("content = %q", ex.Content)
	}
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		want    time.Time
		wantErr bool
	}{
		{"hyphenated", `<h1>T</h1><p>2019-7-1 正文</p>`, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), false},
		{"missing", `<h1>T</h1><p>正文</p>`, time.Time{}, true},
		{"impossible day", `<h1>T</h1><p>2021年2月30日 正文</p>`, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := Extract(strings.NewReader(tt.page), "u")
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if !ex.Date.Equal(tt.want) {
				t.Errorf("date = %v, want %v", ex.Date, tt.want)
			}
			if tt.wantErr != errors.Is(ex.DateErr, ErrMalformedDate) {
				t.Errorf("date error = %v", ex.DateErr)
			}
		})
	}
}
