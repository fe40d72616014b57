package service

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/pkg/logger"
	"github.com/artwall/storefront/pkg/redis"
	"github.com/artwall/storefront/pkg/telemetry"
)

// GalleryCache memoizes gallery results. *redis.SingleFlightCache satisfies it.
type GalleryCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}, ttl time.Duration, loader func() (interface{}, error)) (bool, error)
}

// GalleryOptions are the presentation settings of the gallery.
type GalleryOptions struct {
	PriceMin         int64
	PriceMax         int64
	PriceStep        int64
	FeaturedArtworks int
	FeaturedArtists  int
	RelatedLimit     int
	CacheTTL         time.Duration
}

// GalleryResult is one page of gallery output.
type GalleryResult struct {
	Artworks         []domain.ArtworkView `json:"artworks"`
	Total            int                  `json:"total"`
	HasActiveFilters bool                 `json:"hasActiveFilters"`
	Filters          domain.FilterState   `json:"filters"`
	Suggestions      []string             `json:"suggestions,omitempty"`
}

// CategoryCount is a category with the number of artworks in it.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SortOption is a selectable sort order.
type SortOption struct {
	Value domain.SortKey `json:"value"`
	Label string         `json:"label"`
}

// PriceRange describes the price slider.
type PriceRange struct {
	Min  int64 `json:"min"`
	Max  int64 `json:"max"`
	Step int64 `json:"step"`
}

// FilterMetadata lists everything the gallery can filter and sort by.
type FilterMetadata struct {
	Categories  []CategoryCount `json:"categories"`
	Styles      []string        `json:"styles"`
	Price       PriceRange      `json:"price"`
	SortOptions []SortOption    `json:"sortOptions"`
	Total       int             `json:"total"`
}

// Featured is the home page selection.
type Featured struct {
	Artworks []domain.ArtworkView `json:"artworks"`
	Artists  []domain.Artist      `json:"artists"`
}

// ArtworkDetail is everything the artwork page shows.
type ArtworkDetail struct {
	domain.ArtworkView
	MoreFromArtist []domain.ArtworkView `json:"moreFromArtist"`
	Similar        []domain.ArtworkView `json:"similar"`
	FrameOptions   []domain.FrameOption `json:"frameOptions"`
	SelectedFrame  domain.FrameOption   `json:"selectedFrame"`
	TotalPrice     int64                `json:"totalPrice"`
}

// ArtistProfile is an artist with their artworks.
type ArtistProfile struct {
	domain.Artist
	Artworks []domain.Artwork `json:"artworks"`
}

var sortOptions = []SortOption{
	{Value: domain.SortNewest, Label: "Newest"},
	{Value: domain.SortPriceLow, Label: "Price: Low to High"},
	{Value: domain.SortPriceHigh, Label: "Price: High to Low"},
	{Value: domain.SortPopular, Label: "Most Popular"},
}

// maxSuggestions caps the "did you mean" list.
const maxSuggestions = 3

// CatalogService answers every read over the catalog.
type CatalogService struct {
	catalog *domain.Catalog
	opts    GalleryOptions
	cache   GalleryCache
	log     logger.Logger
	metrics *telemetry.Metrics
}

// NewCatalogService creates the service. cache may be nil.
func NewCatalogService(catalog *domain.Catalog, opts GalleryOptions, cache GalleryCache, log logger.Logger, metrics *telemetry.Metrics) *CatalogService {
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = 4
	}
	return &CatalogService{catalog: catalog, opts: opts, cache: cache, log: log, metrics: metrics}
}

// DefaultFilterState returns the state of a fresh gallery.
func (s *CatalogService) DefaultFilterState() domain.FilterState {
	return domain.DefaultFilterState(s.opts.PriceMin, s.opts.PriceMax)
}

// Gallery runs the query pipeline for state.
func (s *CatalogService) Gallery(ctx context.Context, state domain.FilterState) (*GalleryResult, error) {
	state = state.Normalized()

	var res GalleryResult
	if s.cache != nil {
		key := redis.GalleryCacheKey(state.CacheKey(s.catalog.Version()))
		hit, err := s.cache.GetJSON(ctx, key, &res, s.opts.CacheTTL, func() (interface{}, error) {
			return s.gallery(state), nil
		})
		if err == nil {
			s.metrics.CacheLookup(ctx, hit)
			s.metrics.GalleryQuery(ctx, string(state.SortKey), res.Total)
			return &res, nil
		}
		s.log.WithContext(ctx).Warn("gallery cache unavailable", logger.Error(err))
	}

	res = *s.gallery(state)
	s.metrics.GalleryQuery(ctx, string(state.SortKey), res.Total)
	return &res, nil
}

func (s *CatalogService) gallery(state domain.FilterState) *GalleryResult {
	items := domain.Query(s.catalog.Artworks(), s.catalog.ArtistName, state)
	res := &GalleryResult{
		Artworks:         s.catalog.Views(items),
		Total:            len(items),
		HasActiveFilters: state.HasActiveFilters(s.opts.PriceMin, s.opts.PriceMax),
		Filters:          state,
	}
	if len(items) == 0 && state.Query != "" {
		res.Suggestions = s.Suggest(state.Query)
	}
	return res
}

// Suggest returns up to three artwork titles or artist names close to query,
// nearest first.
func (s *CatalogService) Suggest(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	limit := max(2, utf8.RuneCountInString(q)/3)

	type candidate struct {
		text string
		dist int
	}
	seen := make(map[string]bool)
	var found []candidate
	consider := func(text string) {
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		if d := bestDistance(q, strings.ToLower(text)); d <= limit {
			found = append(found, candidate{text: text, dist: d})
		}
	}
	for _, a := range s.catalog.Artworks() {
		consider(a.Title)
	}
	for _, a := range s.catalog.Artists() {
		consider(a.Name)
	}

	slices.SortStableFunc(found, func(a, b candidate) int {
		return cmp.Or(cmp.Compare(a.dist, b.dist), cmp.Compare(a.text, b.text))
	})
	out := make([]string, 0, maxSuggestions)
	for i := 0; i < len(found) && i < maxSuggestions; i++ {
		out = append(out, found[i].text)
	}
	return out
}

// bestDistance compares q with the whole text and with each of its words,
// so a misspelt surname still finds the full name.
func bestDistance(q, text string) int {
	best := levenshtein.ComputeDistance(q, text)
	for _, w := range strings.Fields(text) {
		best = min(best, levenshtein.ComputeDistance(q, w))
	}
	return best
}

// FilterMetadata describes the available filters.
func (s *CatalogService) FilterMetadata() *FilterMetadata {
	counts := s.catalog.CategoryCounts()
	cats := make([]CategoryCount, 0, len(domain.Categories))
	for _, name := range domain.Categories {
		cats = append(cats, CategoryCount{Name: name, Count: counts[name]})
	}
	return &FilterMetadata{
		Categories:  cats,
		Styles:      append([]string(nil), domain.GalleryStyles...),
		Price:       PriceRange{Min: s.opts.PriceMin, Max: s.opts.PriceMax, Step: s.opts.PriceStep},
		SortOptions: append([]SortOption(nil), sortOptions...),
		Total:       s.catalog.Len(),
	}
}

// Featured returns the first artworks and artists of the catalog.
func (s *CatalogService) Featured() *Featured {
	artworks := s.catalog.Artworks()
	artists := s.catalog.Artists()
	return &Featured{
		Artworks: s.catalog.Views(artworks[:clamp(s.opts.FeaturedArtworks, len(artworks))]),
		Artists:  artists[:clamp(s.opts.FeaturedArtists, len(artists))],
	}
}

func clamp(n, limit int) int {
	return max(0, min(n, limit))
}

// Artwork returns the detail view of id priced with frameID. An empty
// frameID means no frame.
func (s *CatalogService) Artwork(id, frameID string) (*ArtworkDetail, error) {
	if id == "" {
		return nil, domain.ErrInvalidArtworkID
	}
	a, ok := s.catalog.Artwork(id)
	if !ok {
		return nil, domain.ErrArtworkNotFound
	}
	if frameID == "" {
		frameID = domain.FrameNone
	}
	frame, ok := domain.FindFrame(frameID)
	if !ok {
		return nil, domain.ErrUnknownFrame
	}

	var more, similar []domain.Artwork
	for _, other := range s.catalog.Artworks() {
		if other.ID == a.ID {
			continue
		}
		if other.ArtistID == a.ArtistID && len(more) < s.opts.RelatedLimit {
			more = append(more, other)
		}
		if (other.Category == a.Category || other.Style == a.Style) && len(similar) < s.opts.RelatedLimit {
			similar = append(similar, other)
		}
	}

	return &ArtworkDetail{
		ArtworkView:    s.catalog.View(a),
		MoreFromArtist: s.catalog.Views(more),
		Similar:        s.catalog.Views(similar),
		FrameOptions:   append([]domain.FrameOption(nil), domain.FrameOptions...),
		SelectedFrame:  frame,
		TotalPrice:     a.Price + frame.Price,
	}, nil
}

// Artists returns every artist in catalog order.
func (s *CatalogService) Artists() []domain.Artist {
	return s.catalog.Artists()
}

// Artist returns an artist with their artworks.
func (s *CatalogService) Artist(id string) (*ArtistProfile, error) {
	a, ok := s.catalog.Artist(id)
	if !ok {
		return nil, domain.ErrArtistNotFound
	}
	works := []domain.Artwork{}
	for _, w := range s.catalog.Artworks() {
		if w.ArtistID == id {
			works = append(works, w)
		}
	}
	return &ArtistProfile{Artist: a, Artworks: works}, nil
}

// Liked returns the catalog artworks whose IDs are in ids, in catalog order.
// IDs with no catalog entry are skipped.
func (s *CatalogService) Liked(ids []string) []domain.ArtworkView {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	liked := []domain.Artwork{}
	for _, a := range s.catalog.Artworks() {
		if _, ok := set[a.ID]; ok {
			liked = append(liked, a)
		}
	}
	return s.catalog.Views(liked)
}
