package sync

// Topic identifies one multiplexed flow on the realtime channel. Outbound
// requests and inbound responses are correlated by topic name only; the
// protocol carries no request ids.
type Topic string

const (
	TopicThumbnail      Topic = "thumbnail"
	TopicSearch         Topic = "search"
	TopicRequestList    Topic = "request.list"
	TopicRequestConnect Topic = "request.connect"
	TopicRequestAccept  Topic = "request.accept"
	TopicRequestDecline Topic = "request.decline"
	TopicFriendsList    Topic = "friends.list"
	TopicMessageList    Topic = "message.list"
	TopicMessageSend    Topic = "message.send"
)

// ParseTopic maps a wire source string onto the closed topic set. The
// second return is false for sources outside the vocabulary so callers can
// treat them as unhandled instead of failing a map lookup silently.
func ParseTopic(s string) (Topic, bool) {
	switch t := Topic(s); t {
	case TopicThumbnail, TopicSearch,
		TopicRequestList, TopicRequestConnect, TopicRequestAccept, TopicRequestDecline,
		TopicFriendsList, TopicMessageList, TopicMessageSend:
		return t, true
	}
	return "", false
}
