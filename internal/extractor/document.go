package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/ytscraper/internal/models"
)

// Document 页面HTML快照,实现 models.PageQuery
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// NewDocument 解析HTML快照
// pageURL 用于把相对链接解析为绝对地址,可以为空
func NewDocument(src string, pageURL string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("解析页面HTML失败: %w", err)
	}

	var base *url.URL
	if pageURL != "" {
		if base, err = url.Parse(pageURL); err != nil {
			base = nil
		}
	}

	return &Document{
		doc:  goquery.NewDocumentFromNode(root),
		base: base,
	}, nil
}

// Find 实现 models.PageQuery
func (d *Document) Find(selector string) []models.ResultNode {
	var nodes []models.ResultNode
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &node{sel: s, base: d.base})
	})
	return nodes
}

// node 基于goquery的 models.ResultNode 实现
type node struct {
	sel  *goquery.Selection
	base *url.URL
}

func (n *node) Has(selector string) bool {
	return n.sel.Find(selector).Length() > 0
}

func (n *node) Within(ancestor string) bool {
	return n.sel.Closest(ancestor).Length() > 0
}

func (n *node) Text(selector string) string {
	target := n.sel
	if selector != "" {
		target = n.sel.Find(selector).First()
	}
	return strings.TrimSpace(target.Text())
}

func (n *node) Texts(selector string) []string {
	var texts []string
	n.sel.Find(selector).First().Children().Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	return texts
}

func (n *node) Href(selector string) string {
	href, ok := n.sel.Find(selector).First().Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if n.base != nil {
		ref = n.base.ResolveReference(ref)
	}
	return ref.String()
}
