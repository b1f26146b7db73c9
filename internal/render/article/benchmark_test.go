package article

import (
	"testing"

	"github.com/glabrego/postdeck/internal/content"
)

const complexArticle = `<article>
			<h1>Main Title</h1>
			<h2>Subtitle</h2>
			<p>Intro with a <a href="https://example.com/link">reference</a>.</p>
			<ul><li>First point</li><li>Second point</li></ul>
			<ol><li>Step one</li><li>Step two</li></ol>
			<blockquote><p>Quoted claim</p><cite>Jane Doe</cite></blockquote>
			<table>
				<tr><th>Metric</th><th>Value</th></tr>
				<tr><td>Speed</td><td>Fast</td></tr>
				<tr><td>Quality</td><td>High</td></tr>
			</table>
			<p><img src="https://example.com/image.jpg" alt="Cabin view"></p>
		</article>`

func BenchmarkBodyLines_ComplexArticle(b *testing.B) {
	post := content.Post{Body: complexArticle}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = BodyLinesWithOptions(post, 72, DefaultOptions)
	}
}

func BenchmarkExcerpt(b *testing.B) {
	post := content.Post{Body: complexArticle}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Excerpt(post, 120)
	}
}
