package catalog

import (
	"strconv"
	"strings"

	"github.com/modelshelf/modelshelf/pkg/constants"
)

// Permalink builds the public link to a channel message. Public channels use
// their username, private ones the numeric id without the -100 prefix.
func Permalink(username string, chatID, messageID int64) string {
	msg := strconv.FormatInt(messageID, 10)
	if username != "" {
		return constants.PermalinkBase + "/" + username + "/" + msg
	}
	cid := strconv.FormatInt(chatID, 10)
	cid = strings.TrimPrefix(cid, constants.PrivateChannelPrefix)
	return constants.PermalinkBase + "/c/" + cid + "/" + msg
}

// MessageIDFromLocator extracts the message id from the last path segment
// of a permalink. It returns 0 when no id can be parsed.
func MessageIDFromLocator(locator string) int64 {
	locator = strings.TrimRight(locator, "/")
	if locator == "" {
		return 0
	}
	seg := locator[strings.LastIndex(locator, "/")+1:]
	if i := strings.IndexAny(seg, "?#"); i >= 0 {
		seg = seg[:i]
	}
	end := 0
	for end < len(seg) && seg[end] >= '0' && seg[end] <= '9' {
		end++
	}
	id, err := strconv.ParseInt(seg[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
