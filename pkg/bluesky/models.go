package bluesky

import "time"

// Post is a single timeline post with the fields the ranking pipeline
// cares about. CreatedAt is the author-asserted creation time from the
// post record, not the time the PDS indexed it.
type Post struct {
	URI       string
	Text      string
	CreatedAt time.Time
}

// TimelinePage is one page of timeline results. An empty Cursor means
// the timeline is exhausted.
type TimelinePage struct {
	Posts  []Post
	Cursor string
}

// Engagement holds the interaction counts for a single post.
type Engagement struct {
	Likes   int64
	Reposts int64
	Replies int64
}

// Session holds the tokens returned by a successful login.
type Session struct {
	Handle     string
	DID        string
	AccessJWT  string
	RefreshJWT string
}
