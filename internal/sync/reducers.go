package sync

import (
	"encoding/json"

	"github.com/huddleapp/huddle/internal/store"
)

// Reducers fold one inbound payload into a state snapshot. Each is a pure
// function (snapshot, payload) -> (next snapshot, changed); a missing or
// malformed payload substructure is a no-op, never a panic. Slices are
// copied before mutation so published snapshots stay immutable.
//
// The protocol gives no ordering guarantee across topics, so every reducer
// must hold up under out-of-order delivery: a message.send echo may land
// before its conversation was ever loaded, and a friends.list replace may
// land after newer message.send reorders.

func reduce(topic Topic, st store.State, payload []byte) (store.State, bool) {
	switch topic {
	case TopicThumbnail:
		return reduceThumbnail(st, payload)
	case TopicSearch:
		return reduceSearch(st, payload)
	case TopicRequestList:
		return reduceRequestList(st, payload)
	case TopicRequestConnect:
		return reduceRequestConnect(st, payload)
	case TopicRequestAccept:
		return reduceRequestAccept(st, payload)
	case TopicRequestDecline:
		return reduceRequestDecline(st, payload)
	case TopicFriendsList:
		return reduceFriendsList(st, payload)
	case TopicMessageList:
		return reduceMessageList(st, payload)
	case TopicMessageSend:
		return reduceMessageSend(st, payload)
	}
	return st, false
}

// reduceThumbnail shallow-merges the payload's user fields into the
// current user, payload winning on conflict. The upload echo arrives as
// {"source":"thumbnail","user":{...}}.
func reduceThumbnail(st store.State, payload []byte) (store.State, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return st, false
	}

	raw, ok := fields["user"]
	if !ok {
		// Tolerate the user object arriving unwrapped.
		if _, ok := fields["username"]; !ok {
			return st, false
		}
		raw = payload
	}

	// Unmarshalling over a copy of the current user only touches the
	// fields the payload carries: exactly a shallow merge.
	merged := st.User
	if err := json.Unmarshal(raw, &merged); err != nil {
		return st, false
	}
	st.User = merged
	return st, true
}

// reduceSearch replaces the search results wholesale.
func reduceSearch(st store.State, payload []byte) (store.State, bool) {
	var results []store.SearchResult
	if err := json.Unmarshal(payload, &results); err != nil {
		// Not a bare list; the direct reply shape is
		// {"source":"search","results":[...]}.
		var body struct {
			Results *[]store.SearchResult `json:"results"`
		}
		if err := json.Unmarshal(payload, &body); err != nil || body.Results == nil {
			return st, false
		}
		results = *body.Results
	}
	st.SearchResults = results
	return st, true
}

// reduceRequestList replaces the pending-request inbox wholesale.
func reduceRequestList(st store.State, payload []byte) (store.State, bool) {
	var requests []store.Connection
	if err := json.Unmarshal(payload, &requests); err != nil {
		return st, false
	}
	st.Requests = requests
	return st, true
}

// reduceRequestConnect fans out directionally: the sender sees their
// search row flip to pending, the receiver gains an inbox entry. The
// connection event is broadcast to both sides, so each client picks its
// own branch by comparing against the signed-in username.
func reduceRequestConnect(st store.State, payload []byte) (store.State, bool) {
	conn, ok := decodeConnection(payload)
	if !ok {
		return st, false
	}
	me := st.User.Username

	if conn.Sender.Username == me {
		results, changed := setSearchStatus(st.SearchResults, conn.Receiver.Username, store.SearchStatusPendingThem)
		if !changed {
			return st, false
		}
		st.SearchResults = results
		return st, true
	}

	if conn.Receiver.Username == me {
		// At most one inbox entry per sender.
		for _, r := range st.Requests {
			if r.Sender.Username == conn.Sender.Username {
				return st, false
			}
		}
		next := make([]store.Connection, 0, len(st.Requests)+1)
		next = append(next, conn)
		next = append(next, st.Requests...)
		st.Requests = next
		return st, true
	}

	return st, false
}

// reduceRequestAccept removes the inbox entry on the receiver side and
// flips the sender's search row to accepted.
func reduceRequestAccept(st store.State, payload []byte) (store.State, bool) {
	conn, ok := decodeConnection(payload)
	if !ok {
		return st, false
	}
	me := st.User.Username

	if conn.Receiver.Username == me {
		requests, changed := removeRequestByID(st.Requests, conn.ID)
		if !changed {
			return st, false
		}
		st.Requests = requests
		return st, true
	}

	if conn.Sender.Username == me {
		results, changed := setSearchStatus(st.SearchResults, conn.Receiver.Username, store.SearchStatusAccepted)
		if !changed {
			return st, false
		}
		st.SearchResults = results
		return st, true
	}

	return st, false
}

// reduceRequestDecline removes the declined entry from the receiver's
// inbox. The server echoes declines the same way it echoes accepts.
func reduceRequestDecline(st store.State, payload []byte) (store.State, bool) {
	conn, ok := decodeConnection(payload)
	if !ok {
		return st, false
	}
	if conn.Receiver.Username != st.User.Username {
		return st, false
	}
	requests, changed := removeRequestByID(st.Requests, conn.ID)
	if !changed {
		return st, false
	}
	st.Requests = requests
	return st, true
}

// reduceFriendsList replaces the friends list wholesale.
func reduceFriendsList(st store.State, payload []byte) (store.State, bool) {
	var friends []store.FriendEntry
	if err := json.Unmarshal(payload, &friends); err != nil {
		return st, false
	}
	st.Friends = friends
	return st, true
}

// reduceMessageList appends a history page to the transcript and records
// which conversation the page belongs to. The recorded username is the
// staleness guard for message.send; a late page for a conversation the
// user has since switched away from still overwrites it (last write wins,
// a known limitation of topic-only correlation).
func reduceMessageList(st store.State, payload []byte) (store.State, bool) {
	var body struct {
		Messages []store.Message `json:"messages"`
		Friend   *store.User     `json:"friend"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return st, false
	}
	if body.Messages == nil && body.Friend == nil {
		return st, false
	}

	if body.Messages != nil {
		next := make([]store.Message, 0, len(st.Messages)+len(body.Messages))
		next = append(next, st.Messages...)
		next = append(next, body.Messages...)
		st.Messages = next
	}
	if body.Friend != nil {
		st.MessagesUsername = body.Friend.Username
	}
	return st, true
}

// reduceMessageSend handles a new-message event for both sides of a
// conversation: the friend-list row gets its preview refreshed and moves
// to the front regardless of which conversation is open, and the message
// itself joins the transcript only when its conversation is the one being
// viewed.
func reduceMessageSend(st store.State, payload []byte) (store.State, bool) {
	var body struct {
		Message *store.Message `json:"message"`
		Friend  *store.User    `json:"friend"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return st, false
	}
	if body.Message == nil || body.Friend == nil {
		return st, false
	}

	changed := false

	for i, entry := range st.Friends {
		if entry.Friend.Username != body.Friend.Username {
			continue
		}
		moved := entry
		moved.Preview = body.Message.Text
		moved.Updated = body.Message.Created

		next := make([]store.FriendEntry, 0, len(st.Friends))
		next = append(next, moved)
		next = append(next, st.Friends[:i]...)
		next = append(next, st.Friends[i+1:]...)
		st.Friends = next
		changed = true
		break
	}

	if body.Friend.Username == st.MessagesUsername {
		next := make([]store.Message, 0, len(st.Messages)+1)
		next = append(next, *body.Message)
		next = append(next, st.Messages...)
		st.Messages = next
		changed = true
	}

	return st, changed
}

// decodeConnection parses a connection event. Frames missing either
// endpoint (such as the bare {"receiver":...} acknowledgment the server
// sends back to the initiator) decode as not-ok and reduce to a no-op.
func decodeConnection(payload []byte) (store.Connection, bool) {
	var conn store.Connection
	if err := json.Unmarshal(payload, &conn); err != nil {
		return conn, false
	}
	if conn.Sender.Username == "" || conn.Receiver.Username == "" {
		return conn, false
	}
	return conn, true
}

func setSearchStatus(results []store.SearchResult, username, status string) ([]store.SearchResult, bool) {
	for i, r := range results {
		if r.Username != username || r.Status == status {
			continue
		}
		next := make([]store.SearchResult, len(results))
		copy(next, results)
		next[i].Status = status
		return next, true
	}
	return results, false
}

func removeRequestByID(requests []store.Connection, id int64) ([]store.Connection, bool) {
	for i, r := range requests {
		if r.ID != id {
			continue
		}
		next := make([]store.Connection, 0, len(requests)-1)
		next = append(next, requests[:i]...)
		next = append(next, requests[i+1:]...)
		return next, true
	}
	return requests, false
}
