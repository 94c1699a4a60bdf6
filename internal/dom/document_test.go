package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const feed = `<html><body>
<div id="comments">
  <div class="comment" id="c1"><p>first</p></div>
  <div class="comment" id="c2"><p>second</p></div>
</div>
<div class="sidebar"><p>side</p></div>
</body></html>`

func parse(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(feed)
	require.NoError(t, err)
	return doc
}

func ids(nodes []*html.Node) []string {
	var out []string
	for _, n := range nodes {
		v, _ := Attr(n, "id")
		out = append(out, v)
	}
	return out
}

func TestQueryAllSelectorOrderThenTreeOrder(t *testing.T) {
	doc := parse(t)

	got := doc.QueryAll([]string{"#c2", ".comment"})
	assert.Equal(t, []string{"c2", "c1"}, ids(got), "selector order first, duplicates dropped")
}

func TestInvalidSelectorMatchesNothing(t *testing.T) {
	doc := parse(t)
	assert.Empty(t, doc.QueryAll([]string{"div[[["}))
	assert.Nil(t, doc.QueryFirst("#missing"))
}

func TestTextAndContains(t *testing.T) {
	doc := parse(t)
	c1 := doc.QueryFirst("#c1")
	require.NotNil(t, c1)
	assert.Equal(t, "first", Text(c1))
	assert.True(t, doc.Contains(c1))

	doc.RemoveNode(c1)
	assert.False(t, doc.Contains(c1))
}

func TestMatchesClosestHasDescendant(t *testing.T) {
	doc := parse(t)
	p := doc.QueryFirst("#c1 p")
	require.NotNil(t, p)

	assert.True(t, Matches(p, "#comments p"))
	assert.False(t, Matches(p, ".sidebar p"))
	assert.Equal(t, doc.QueryFirst("#c1"), Closest(p, "div"))
	assert.True(t, HasDescendant(doc.QueryFirst("#comments"), ".comment"))
}

func TestNormalize(t *testing.T) {
	p := NewElement("p")
	p.AppendChild(NewText("a"))
	p.AppendChild(NewText(""))
	p.AppendChild(NewText("b"))
	p.AppendChild(NewElement("br"))
	p.AppendChild(NewText(""))

	Normalize(p)

	require.NotNil(t, p.FirstChild)
	assert.Equal(t, "ab", p.FirstChild.Data)
	assert.True(t, IsElement(p.FirstChild.NextSibling, "br"))
	assert.Nil(t, p.FirstChild.NextSibling.NextSibling)
}

func TestObserveDeliversOncePerObserver(t *testing.T) {
	doc := parse(t)
	comments := doc.QueryFirst("#comments")

	var batches [][]MutationRecord
	disconnect := doc.Observe([]*html.Node{comments, doc.Body(), nil}, func(r []MutationRecord) {
		batches = append(batches, r)
	})

	added, err := doc.AppendHTML(comments, `<div class="comment" id="c3"><p>third</p></div>`)
	require.NoError(t, err)
	require.Len(t, added, 1)

	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, comments, batches[0][0].Target)
	assert.Equal(t, "third", Text(batches[0][0].Added[0]))

	disconnect()
	_, err = doc.AppendHTML(comments, `<p>late</p>`)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestObserveIgnoresOutsideTargets(t *testing.T) {
	doc := parse(t)
	calls := 0
	doc.Observe([]*html.Node{doc.QueryFirst("#comments")}, func([]MutationRecord) { calls++ })

	_, err := doc.AppendHTML(doc.QueryFirst(".sidebar"), `<p>more</p>`)
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}

func TestReplaceBody(t *testing.T) {
	doc := parse(t)
	var got []MutationRecord
	doc.Observe([]*html.Node{doc.Body()}, func(r []MutationRecord) { got = append(got, r...) })

	require.NoError(t, doc.ReplaceBody(`<div id="new">fresh</div>`))

	assert.Nil(t, doc.QueryFirst("#comments"))
	assert.Equal(t, "fresh", Text(doc.QueryFirst("#new")))
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].Removed)
}
