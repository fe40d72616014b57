package domain

// Artwork is a purchasable catalog item. Catalog entries are loaded once at
// start and never mutated.
type Artwork struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ArtistID    string   `json:"artistId"`
	Category    string   `json:"category"`
	Style       string   `json:"style"`
	Price       int64    `json:"price"`     // UZS
	Favorites   int      `json:"favorites"` // like count shown on cards
	Year        int      `json:"year"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	Width       int      `json:"width"`  // cm
	Height      int      `json:"height"` // cm
	Medium      string   `json:"medium"`
	IsOriginal  bool     `json:"isOriginal"`
}

// Artist is the creator of one or more artworks.
type Artist struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Avatar        string  `json:"avatar"`
	CoverImage    string  `json:"coverImage"`
	Location      string  `json:"location"`
	Bio           string  `json:"bio"`
	IsVerified    bool    `json:"isVerified"`
	Followers     int     `json:"followers"`
	ArtworksCount int     `json:"artworksCount"`
	Rating        float64 `json:"rating"`
}

// ArtworkView is an artwork with its artist embedded, as rendered by cards
// and the detail page.
type ArtworkView struct {
	Artwork
	Artist Artist `json:"artist"`
}

// FrameOption is a framing choice offered on the artwork detail page.
type FrameOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// FrameNone is the default frame option.
const FrameNone = "none"

// FrameOptions lists the framing choices in display order.
var FrameOptions = []FrameOption{
	{ID: FrameNone, Name: "No Frame", Price: 0},
	{ID: "classic", Name: "Classic Wood", Price: 1_500_000},
	{ID: "modern", Name: "Modern Black", Price: 2_000_000},
	{ID: "gold", Name: "Gold Ornate", Price: 3_500_000},
}

// FindFrame returns the frame option with the given ID.
func FindFrame(id string) (FrameOption, bool) {
	for _, f := range FrameOptions {
		if f.ID == id {
			return f, true
		}
	}
	return FrameOption{}, false
}

// Categories is the fixed set of artwork categories.
var Categories = []string{
	"Painting",
	"Sculpture",
	"Photography",
	"Digital Art",
	"Traditional Uzbek",
	"Miniature",
	"Textile Art",
	"Ceramics",
	"Mixed Media",
	"Calligraphy",
}

// GalleryStyles is the set of styles offered as gallery filters.
var GalleryStyles = []string{
	"Abstract",
	"Realism",
	"Modern",
	"Traditional Uzbek",
	"Minimalist",
	"Impressionist",
}

// ApplicationStyles extends GalleryStyles with the styles an applying artist
// may declare.
var ApplicationStyles = append(append([]string(nil), GalleryStyles...),
	"Expressionist",
	"Surrealist",
	"Contemporary",
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsCategory reports whether s is a known category.
func IsCategory(s string) bool { return contains(Categories, s) }

// IsGalleryStyle reports whether s is a gallery filter style.
func IsGalleryStyle(s string) bool { return contains(GalleryStyles, s) }
