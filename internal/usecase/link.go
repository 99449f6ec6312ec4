package usecase

import (
	"math"
	"regexp"
	"strconv"

	"channel-relay-bot/internal/domain/model"
)

var postLinkPattern = regexp.MustCompile(`https?://t\.me/([^/\s]+)/(\d+)`)

// ParseLink extracts the first channel post link from text. Texts without a
// link, or with an id outside the positive int32 range, report false.
func ParseLink(text string) (model.ChannelPostReference, bool) {
	m := postLinkPattern.FindStringSubmatch(text)
	if m == nil {
		return model.ChannelPostReference{}, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || id <= 0 || id > math.MaxInt32 {
		return model.ChannelPostReference{}, false
	}
	ref, err := model.NewChannelPostReference(m[1], int(id))
	if err != nil {
		return model.ChannelPostReference{}, false
	}
	return ref, true
}
