package domain

import "encoding/json"

// FavoritesRecord is the persisted layout of a favorites set:
// {"favoriteIds": ["...", ...]}.
type FavoritesRecord struct {
	FavoriteIDs []string `json:"favoriteIds"`
}

// DecodeFavoritesRecord parses a persisted record. Empty input yields an
// empty record; malformed input is an error the caller treats as absent.
func DecodeFavoritesRecord(data []byte) (FavoritesRecord, error) {
	var rec FavoritesRecord
	if len(data) == 0 {
		return rec, nil
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return FavoritesRecord{}, err
	}
	return rec, nil
}

// Encode serializes the record. A nil slice is written as an empty list.
func (r FavoritesRecord) Encode() ([]byte, error) {
	if r.FavoriteIDs == nil {
		r.FavoriteIDs = []string{}
	}
	return json.Marshal(r)
}
