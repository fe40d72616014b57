package domain

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// Catalog is the read-only collection of artworks and the artists who made
// them. It is safe for concurrent use because nothing mutates it after
// NewCatalog returns.
type Catalog struct {
	artworks  []Artwork
	artists   []Artist
	artworkIx map[string]int
	artistIx  map[string]int
	version   string
}

// NewCatalog indexes artworks and artists. IDs must be unique and every
// artwork must reference a known artist.
func NewCatalog(artworks []Artwork, artists []Artist) (*Catalog, error) {
	c := &Catalog{
		artworks:  append([]Artwork(nil), artworks...),
		artists:   append([]Artist(nil), artists...),
		artworkIx: make(map[string]int, len(artworks)),
		artistIx:  make(map[string]int, len(artists)),
	}
	for i, a := range c.artists {
		if a.ID == "" {
			return nil, fmt.Errorf("artist at index %d has no id", i)
		}
		if _, dup := c.artistIx[a.ID]; dup {
			return nil, fmt.Errorf("duplicate artist id %q", a.ID)
		}
		c.artistIx[a.ID] = i
	}
	for i, a := range c.artworks {
		if a.ID == "" {
			return nil, fmt.Errorf("artwork at index %d has no id", i)
		}
		if _, dup := c.artworkIx[a.ID]; dup {
			return nil, fmt.Errorf("duplicate artwork id %q", a.ID)
		}
		if _, ok := c.artistIx[a.ArtistID]; !ok {
			return nil, fmt.Errorf("artwork %q references unknown artist %q", a.ID, a.ArtistID)
		}
		if a.Price < 0 {
			return nil, fmt.Errorf("artwork %q has negative price", a.ID)
		}
		c.artworkIx[a.ID] = i
	}
	c.version = c.fingerprint()
	return c, nil
}

// Artworks returns a copy of the artworks in catalog order.
func (c *Catalog) Artworks() []Artwork {
	return append([]Artwork(nil), c.artworks...)
}

// Artists returns a copy of the artists in catalog order.
func (c *Catalog) Artists() []Artist {
	return append([]Artist(nil), c.artists...)
}

// Artwork looks up an artwork by ID.
func (c *Catalog) Artwork(id string) (Artwork, bool) {
	i, ok := c.artworkIx[id]
	if !ok {
		return Artwork{}, false
	}
	return c.artworks[i], true
}

// Artist looks up an artist by ID.
func (c *Catalog) Artist(id string) (Artist, bool) {
	i, ok := c.artistIx[id]
	if !ok {
		return Artist{}, false
	}
	return c.artists[i], true
}

// ArtistName returns the display name of the artist, or "" if unknown.
func (c *Catalog) ArtistName(id string) string {
	a, _ := c.Artist(id)
	return a.Name
}

// View embeds the artist into an artwork.
func (c *Catalog) View(a Artwork) ArtworkView {
	artist, _ := c.Artist(a.ArtistID)
	return ArtworkView{Artwork: a, Artist: artist}
}

// Views embeds artists into each artwork, preserving order.
func (c *Catalog) Views(artworks []Artwork) []ArtworkView {
	out := make([]ArtworkView, len(artworks))
	for i, a := range artworks {
		out[i] = c.View(a)
	}
	return out
}

// Len returns the number of artworks.
func (c *Catalog) Len() int { return len(c.artworks) }

// Version identifies the catalog contents, including order. It changes
// whenever any artwork or artist field changes.
func (c *Catalog) Version() string { return c.version }

// CategoryCounts returns the number of artworks per category, for every
// known category plus any extra category present in the data.
func (c *Catalog) CategoryCounts() map[string]int {
	counts := make(map[string]int, len(Categories))
	for _, name := range Categories {
		counts[name] = 0
	}
	for _, a := range c.artworks {
		counts[a.Category]++
	}
	return counts
}

// fingerprint hashes every field of every artwork and artist.
func (c *Catalog) fingerprint() string {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	// Encoding plain structs into a hash cannot fail.
	_ = enc.Encode(c.artworks)
	_ = enc.Encode(c.artists)
	return fmt.Sprintf("%016x", h.Sum64())
}
