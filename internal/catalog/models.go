package catalog

// Track is a single catalog entry. Tracks are immutable once read from the
// catalog; playlist entries hold value copies keyed by ID.
type Track struct {
	ID     string `json:"trackId"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Album  string `json:"album,omitempty"`
}

// Label renders the conventional "Artist – Title" display form.
func (t Track) Label() string {
	return t.Artist + " – " + t.Title
}

// Stats summarizes the catalog contents.
type Stats struct {
	TotalTracks  int `json:"totalTracks"`
	TotalArtists int `json:"totalArtists"`
	TotalAlbums  int `json:"totalAlbums"`
}
