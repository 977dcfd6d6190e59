package domain

// MediaSource lists the transcodings available for one video.  It is read once when the player mounts and never
// changes afterwards.
type MediaSource struct {
	VideoID              int
	Title                string
	AdaptiveManifestURL  string // DASH manifest
	StreamingPlaylistURL string // HLS playlist
	ProgressiveFileURL   string // Single fixed-bitrate file
	PosterURL            string
	CaptionsPresent      bool
}

// ProgressRecord is the persisted viewing progress of one user for one video.  The record is owned by the remote
// library API; this module only holds a cached snapshot of it.
type ProgressRecord struct {
	ID              *int // nil until the remote store has created the record
	VideoID         int
	PercentComplete int
	SaveForLater    bool
	Rating          *int
}

// Clone returns a deep copy so cached snapshots can be handed out without sharing pointers
func (r *ProgressRecord) Clone() *ProgressRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.ID != nil {
		id := *r.ID
		clone.ID = &id
	}
	if r.Rating != nil {
		rating := *r.Rating
		clone.Rating = &rating
	}
	return &clone
}
