// Package avatar resolves a user's thumbnail reference to something a
// screen can display directly.
package avatar

import "github.com/huddleapp/huddle/internal/store"

// Placeholder is the bundled default shown when a user has no thumbnail.
const Placeholder = "asset://profile-placeholder.png"

// Resolve picks the display source for a user's thumbnail. A base64-inlined
// data URI wins over the server-relative URL form, which wins over the
// bundled placeholder.
func Resolve(server string, user store.User) string {
	if user.ThumbnailBase64 != "" {
		return user.ThumbnailBase64
	}
	if user.Thumbnail != "" {
		return "http://" + server + user.Thumbnail
	}
	return Placeholder
}
