package store

// User is an account as the server serializes it. ThumbnailBase64 is only
// present on thumbnail-upload echoes and takes priority over Thumbnail,
// which is a server-relative path.
type User struct {
	Username        string `json:"username"`
	Name            string `json:"name"`
	Thumbnail       string `json:"thumbnail,omitempty"`
	ThumbnailBase64 string `json:"thumbnail_base64,omitempty"`
}

// Credentials is the sign-in blob persisted in the vault. It is only read
// back to silently re-authenticate on cold start.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is the persisted token set. Access is attached to every
// realtime connection attempt; once tokens exist they are preferred over
// re-running credential sign-in.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Connection status values.
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionDeclined = "declined"
)

// Connection is a directional friendship record: Sender initiated it, only
// Receiver may accept or decline.
type Connection struct {
	ID       int64  `json:"id"`
	Sender   User   `json:"sender"`
	Receiver User   `json:"receiver"`
	Status   string `json:"status"`
}

// FriendEntry is one row of the friends list, ordered by Updated descending.
type FriendEntry struct {
	ID      int64  `json:"id"`
	Friend  User   `json:"friend"`
	Preview string `json:"preview"`
	Updated string `json:"updated"`
}

// Search result status values, annotated client-side from locally observed
// connection events.
const (
	SearchStatusNone        = "none"
	SearchStatusPendingMine = "pending-mine"
	SearchStatusPendingThem = "pending-them"
	SearchStatusAccepted    = "accepted"
)

// SearchResult is one row of a user search response.
type SearchResult struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Status    string `json:"status"`
}

// Message belongs to exactly one connection. Created doubles as the sort
// and dedupe key; the presented list is newest first.
type Message struct {
	Created   string `json:"created"`
	Text      string `json:"text"`
	IsMe      bool   `json:"is_me"`
	Thumbnail string `json:"thumbnail,omitempty"`
}
