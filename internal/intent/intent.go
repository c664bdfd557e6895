// Package intent frames the outbound requests screens can issue. Every
// intent is a thin precondition check plus one topic-tagged send; replies
// come back asynchronously through the reducers, correlated by topic name
// only.
package intent

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huddleapp/huddle/internal/store"
	intsync "github.com/huddleapp/huddle/internal/sync"
)

// Sender is the outbound half of the realtime channel. Sends while the
// channel is not open are dropped there, logged, never an error.
type Sender interface {
	Send(topic intsync.Topic, payload map[string]any)
}

// Image is a picked profile image. FileName is preferred for naming the
// upload; URI is the fallback source path.
type Image struct {
	FileName string
	URI      string
	Base64   string
}

// Intents issues outbound requests and performs the few local-only state
// resets that precede them.
type Intents struct {
	sender Sender
	store  *store.Store
	logger *zap.Logger
}

// New creates the intent surface over a sender and the shared store.
func New(sender Sender, st *store.Store, logger *zap.Logger) *Intents {
	return &Intents{
		sender: sender,
		store:  st,
		logger: logger,
	}
}

// SearchUsers queries the user directory. An empty query clears the
// results locally instead of a network round-trip.
func (i *Intents) SearchUsers(query string) {
	if query == "" {
		i.store.Update("search", func(st store.State) (store.State, bool) {
			st.SearchResults = nil
			return st, true
		})
		return
	}
	i.send(intsync.TopicSearch, map[string]any{"query": query})
}

// RequestConnect sends a friend request to username.
func (i *Intents) RequestConnect(username string) {
	i.send(intsync.TopicRequestConnect, map[string]any{"username": username})
}

// RequestAccept accepts the pending request from username.
func (i *Intents) RequestAccept(username string) {
	i.send(intsync.TopicRequestAccept, map[string]any{"username": username})
}

// RequestDecline declines the pending request from username.
func (i *Intents) RequestDecline(username string) {
	i.send(intsync.TopicRequestDecline, map[string]any{"username": username})
}

// GetFriends requests the friends list.
func (i *Intents) GetFriends(username string) {
	i.send(intsync.TopicFriendsList, map[string]any{"username": username})
}

// MessageSend sends text on the given connection.
func (i *Intents) MessageSend(connectionID int64, text string) {
	i.send(intsync.TopicMessageSend, map[string]any{
		"connectionId": connectionID,
		"message":      text,
	})
}

// RetrieveMessageList fetches one history page for a connection. Page 0
// opens a conversation: the local transcript and its guard are reset
// before the request goes out, so a switch always starts clean.
func (i *Intents) RetrieveMessageList(connectionID int64, page int) {
	if page == 0 {
		i.store.Update("messages", func(st store.State) (store.State, bool) {
			st.Messages = nil
			st.MessagesUsername = ""
			return st, true
		})
	}
	i.send(intsync.TopicMessageList, map[string]any{
		"connectionId": connectionID,
		"page":         page,
	})
}

// UploadThumbnail sends a new profile image. The upload name comes from
// the image's own filename, falling back to the basename of its source
// path, with .jpg appended when the derived name has no extension.
func (i *Intents) UploadThumbnail(img Image) {
	if img.Base64 == "" {
		i.logger.Info("thumbnail upload skipped, no image data")
		return
	}
	i.send(intsync.TopicThumbnail, map[string]any{
		"base64":   img.Base64,
		"filename": UploadFilename(img),
	})
}

// UploadFilename derives the server-side filename for an image.
func UploadFilename(img Image) string {
	name := img.FileName
	if name == "" {
		name = path.Base(strings.TrimSuffix(img.URI, "/"))
		if name == "." || name == "/" {
			name = "thumbnail"
		}
	}
	if path.Ext(name) == "" {
		name += ".jpg"
	}
	return name
}

func (i *Intents) send(topic intsync.Topic, payload map[string]any) {
	// Trace ids never go on the wire: correlation stays topic-only for
	// compatibility, the id only ties a send to its log line.
	i.logger.Debug("intent",
		zap.String("topic", string(topic)),
		zap.String("intent_id", uuid.NewString()),
	)
	i.sender.Send(topic, payload)
}
