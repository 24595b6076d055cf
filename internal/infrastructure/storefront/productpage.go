package storefront

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/comparador-uy/backend/internal/domain"
)

// pricePatterns are tried in order against the raw product page markup once
// the microdata attribute lookup found nothing
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)itemprop="price"\s+content="([0-9]+(?:[.,][0-9]+)?)"`),
	regexp.MustCompile(`(?is)"Price"\s*:\s*([0-9]+(?:[.,][0-9]+)?)`),
	regexp.MustCompile(`(?is)"ListPrice"\s*:\s*([0-9]+(?:[.,][0-9]+)?)`),
	regexp.MustCompile(`(?is)\$ ?([\d.,]+)\s*</`),
	regexp.MustCompile(`(?is)"price"\s*:\s*"([0-9]+(?:[.,][0-9]+)?)"`),
}

// ProductPage is what a product detail page tells us about its product
type ProductPage struct {
	Name  string
	Price *float64
}

// ParseProductPage extracts the name (first h1, else the title) and the price
func ParseProductPage(html []byte) (ProductPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ProductPage{}, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}

	page := ProductPage{
		Name:  collapseSpace(doc.Find("h1").First().Text()),
		Price: microdataPrice(doc),
	}
	if page.Name == "" {
		page.Name = collapseSpace(doc.Find("title").First().Text())
	}
	if page.Price == nil {
		page.Price = patternPrice(html)
	}

	return page, nil
}

func microdataPrice(doc *goquery.Document) *float64 {
	var price *float64
	doc.Find(`[itemprop="price"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if content, ok := sel.Attr("content"); ok {
			price = ParsePrice(content)
		}
		return price == nil
	})
	return price
}

func patternPrice(html []byte) *float64 {
	for _, pattern := range pricePatterns {
		m := pattern.FindSubmatch(html)
		if m == nil {
			continue
		}
		if price := ParsePrice(string(m[1])); price != nil {
			return price
		}
	}
	return nil
}

// SlugFromHref returns the product slug of a product page link:
// "/harina-pity-1kg/p" and "https://host/harina-pity-1kg/p?x=1" both give "harina-pity-1kg"
func SlugFromHref(href string) string {
	path := href
	if u, err := url.Parse(href); err == nil {
		path = u.Path
	}

	parts := make([]string, 0, 4)
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	switch {
	case len(parts) == 0:
		return ""
	case parts[len(parts)-1] == "p" && len(parts) >= 2:
		return parts[len(parts)-2]
	case parts[len(parts)-1] == "p":
		return ""
	default:
		return parts[len(parts)-1]
	}
}

// ResolveHref makes a product link absolute against the backend base URL
func ResolveHref(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimRight(base, "/") + href
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NameFromSlug turns "harina-0000-pity-1kg" into "harina 0000 pity 1kg"
func NameFromSlug(slug string) string {
	return collapseSpace(strings.ReplaceAll(strings.ToLower(slug), "-", " "))
}
