// Package sitemap fetches and parses sitemaps.org XML documents.
package sitemap

import (
	"encoding/xml"
	"strings"
)

// Namespace is the default sitemaps.org protocol namespace. Documents
// without it are rejected, matching the protocol's required form.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Entry is a single <loc> holder inside a sitemap document.
type Entry struct {
	Loc string `xml:"loc"`
}

// Index is a root sitemap index: a list of second-level sitemap locations.
type Index struct {
	XMLName  xml.Name `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 sitemapindex"`
	Sitemaps []Entry  `xml:"sitemap"`
}

// URLSet is a second-level sitemap: a list of page URLs.
type URLSet struct {
	XMLName xml.Name `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []Entry  `xml:"url"`
}

// shardMarker identifies shard sitemaps among the index entries.
const shardMarker = "shard="

// ShardURLs returns the index entries that point at catalog shards.
func (idx *Index) ShardURLs() []string {
	var shards []string
	for _, entry := range idx.Sitemaps {
		loc := strings.TrimSpace(entry.Loc)
		if loc != "" && strings.Contains(loc, shardMarker) {
			shards = append(shards, loc)
		}
	}
	return shards
}
