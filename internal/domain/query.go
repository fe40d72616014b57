package domain

import (
	"cmp"
	"crypto/sha1"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

// SortKey selects the single ordering applied by the gallery.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortPopular   SortKey = "popular"
)

// ParseSortKey maps a request value to a SortKey. Unknown or empty values
// sort newest first.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortPriceLow, SortPriceHigh, SortPopular:
		return k
	default:
		return SortNewest
	}
}

// FilterState is the transient gallery filter owned by the caller. Empty
// Categories or Styles mean "no constraint"; the price range is inclusive.
type FilterState struct {
	Query      string   `json:"q"`
	Categories []string `json:"categories"`
	Styles     []string `json:"styles"`
	PriceMin   int64    `json:"minPrice"`
	PriceMax   int64    `json:"maxPrice"`
	SortKey    SortKey  `json:"sortBy"`
}

// DefaultFilterState is the state after a fresh load or "clear filters":
// nothing selected, the full configured price range, newest first.
func DefaultFilterState(priceMin, priceMax int64) FilterState {
	return FilterState{PriceMin: priceMin, PriceMax: priceMax, SortKey: SortNewest}
}

// HasActiveFilters reports whether any category or style is selected or the
// price range is narrower than [boundsMin, boundsMax]. The text query does
// not count, matching the gallery's "clear filters" indicator.
func (f FilterState) HasActiveFilters(boundsMin, boundsMax int64) bool {
	return len(f.Categories) > 0 ||
		len(f.Styles) > 0 ||
		f.PriceMin > boundsMin ||
		f.PriceMax < boundsMax
}

// Normalized returns an equivalent state with sets deduplicated and sorted
// and the sort key canonicalised. The query is kept verbatim: surrounding
// spaces are part of the substring match.
func (f FilterState) Normalized() FilterState {
	f.Categories = normalizeSet(f.Categories)
	f.Styles = normalizeSet(f.Styles)
	f.SortKey = ParseSortKey(string(f.SortKey))
	return f
}

// CacheKey hashes the normalized state together with a catalog version, so
// equivalent states share a key and a catalog change invalidates all keys.
func (f FilterState) CacheKey(catalogVersion string) string {
	n := f.Normalized()
	var b strings.Builder
	b.WriteString(catalogVersion)
	b.WriteByte('|')
	b.WriteString(strings.ToLower(n.Query))
	b.WriteByte('|')
	b.WriteString(strings.Join(n.Categories, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(n.Styles, ","))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(n.PriceMin, 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(n.PriceMax, 10))
	b.WriteByte('|')
	b.WriteString(string(n.SortKey))
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Query filters artworks by state and returns them in the selected order.
// artistName resolves an artwork's ArtistID for the text predicate and may
// be nil. The input slice is never modified.
func Query(artworks []Artwork, artistName func(id string) string, state FilterState) []Artwork {
	matches := Filter(artworks, artistName, state)
	SortArtworks(matches, state.SortKey)
	return matches
}

// Filter returns, in input order, the artworks satisfying every predicate
// of state.
func Filter(artworks []Artwork, artistName func(id string) string, state FilterState) []Artwork {
	needle := strings.ToLower(state.Query)
	out := make([]Artwork, 0, len(artworks))
	for _, a := range artworks {
		if !matchesText(a, artistName, needle) {
			continue
		}
		if len(state.Categories) > 0 && !slices.Contains(state.Categories, a.Category) {
			continue
		}
		if len(state.Styles) > 0 && !slices.Contains(state.Styles, a.Style) {
			continue
		}
		if a.Price < state.PriceMin || a.Price > state.PriceMax {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesText(a Artwork, artistName func(string) string, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(a.Title), needle) {
		return true
	}
	if artistName == nil {
		return false
	}
	return strings.Contains(strings.ToLower(artistName(a.ArtistID)), needle)
}

// SortArtworks stably sorts artworks in place by key. Ties keep their
// relative order.
func SortArtworks(artworks []Artwork, key SortKey) {
	var cmpFn func(a, b Artwork) int
	switch ParseSortKey(string(key)) {
	case SortPriceLow:
		cmpFn = func(a, b Artwork) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceHigh:
		cmpFn = func(a, b Artwork) int { return cmp.Compare(b.Price, a.Price) }
	case SortPopular:
		cmpFn = func(a, b Artwork) int { return cmp.Compare(b.Favorites, a.Favorites) }
	default:
		cmpFn = func(a, b Artwork) int { return cmp.Compare(b.Year, a.Year) }
	}
	slices.SortStableFunc(artworks, cmpFn)
}
