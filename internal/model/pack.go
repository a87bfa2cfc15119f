package model

import "time"

// TrackLengthFull is the sentinel for "play to the natural end of the
// clip", still capped by the configured per-round maximum.
const TrackLengthFull = 0

// Track describes one playable clip and its accepted answers.
// Tracks are copied into a session at start and never mutated afterwards.
type Track struct {
	Artist    string   `json:"artist" bson:"artist"`
	Title     string   `json:"title" bson:"title"`
	Aliases   []string `json:"aliases,omitempty" bson:"aliases,omitempty"` // alternate accepted answers
	Locator   string   `json:"locator" bson:"locator"`                     // media URL or identifier for the extractor
	OffsetSec int      `json:"offsetSec" bson:"offsetSec"`                 // start offset into the source
	LengthSec int      `json:"lengthSec" bson:"lengthSec"`                 // TrackLengthFull means play to end
}

// Pack is a named collection of tracks in the catalog
type Pack struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Tags      []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	Tracks    []Track   `json:"tracks" bson:"tracks"`
	PlayCount int       `json:"playCount" bson:"playCount"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
