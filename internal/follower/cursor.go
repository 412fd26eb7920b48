package follower

// cursor accumulates an absolute byte offset across repeated reopens of the
// recording file. Each reseek constructs a brand new matroska.Iterator
// whose own offset accounting starts at zero, so the absolute position has
// to be rebuilt by adding back however far that iterator got before the
// follower decided to reseek again.
type cursor struct {
	abs int64
}

func (c *cursor) advance(relative int64) {
	c.abs += relative
}

func (c *cursor) value() int64 {
	return c.abs
}
