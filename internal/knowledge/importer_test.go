package knowledge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Math tips</title>
  <link>https://example.com</link>
  <description>tips</description>
  <item>
    <title>分式方程</title>
    <link>https://example.com/1</link>
    <description>&lt;p&gt;解分式方程要&lt;b&gt;检验增根&lt;/b&gt;。&lt;/p&gt;</description>
    <category>分式方程</category>
    <category>增根</category>
  </item>
  <item>
    <title>三角形面积公式</title>
    <link>https://example.com/2</link>
    <description>duplicate of a seeded title</description>
  </item>
  <item>
    <title>No body</title>
    <link>https://example.com/3</link>
  </item>
</channel>
</rss>`

const testPage = `<!DOCTYPE html>
<html><head><title>Fractions explained</title></head>
<body>
<nav>menu</nav>
<article>
<h1>Fractions explained</h1>
<p>A fraction represents a part of a whole. The number above the line is the numerator and the number below the line is the denominator.</p>
<p>To add two fractions with different denominators, first rewrite both fractions with a common denominator, then add the numerators and keep the denominator.</p>
<p>Always simplify the result by dividing numerator and denominator by their greatest common divisor.</p>
</article>
</body></html>`

func TestImportFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	s := openTestStore(t)
	im := NewImporter(s, 5*time.Second, 10)

	res, err := im.ImportFeed(context.Background(), srv.URL, homework.SubjectMath)
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Empty)

	added := res.Added[0]
	assert.Equal(t, "分式方程", added.Title)
	assert.Equal(t, "解分式方程要 检验增根 。", added.Content)
	assert.Equal(t, []string{"分式方程", "增根"}, added.Keywords)
	assert.Equal(t, homework.SubjectMath, added.Subject)
}

func TestImportFeedRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	s := openTestStore(t)
	im := NewImporter(s, 5*time.Second, 1)

	res, err := im.ImportFeed(context.Background(), srv.URL, homework.SubjectChinese)
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
}

func TestImportPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "SmartGrade")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	s := openTestStore(t)
	im := NewImporter(s, 5*time.Second, 0)

	item, err := im.ImportPage(context.Background(), srv.URL+"/fractions", homework.SubjectMath, []string{"fraction"})
	require.NoError(t, err)
	assert.Equal(t, "Fractions explained", item.Title)
	assert.True(t, strings.Contains(item.Content, "common denominator"))
	assert.Equal(t, []string{"fraction"}, item.Keywords)

	got, err := s.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Title, got.Title)
}

func TestImportPageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	s := openTestStore(t)
	im := NewImporter(s, 5*time.Second, 0)

	_, err := im.ImportPage(context.Background(), srv.URL, homework.SubjectMath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "a & b c", stripHTML("<p>a &amp; b</p>\n<br/>c"))
}
