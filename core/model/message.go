package model

// MaxMessageBytes is the transport ceiling for one channel message, in UTF-8
// bytes.
const MaxMessageBytes = 135

// OutboundMessage is a rendered message ready for dispatch. Bytes always
// equals len(Text) and never exceeds the budget it was built for.
type OutboundMessage struct {
	ChannelKey string
	Label      string
	Text       string
	Bytes      int
}
