package wire

// CloseBody treats every byte available as body content, with no framing
// of its own; the message ends only when the peer closes the connection.
type CloseBody struct{}

// Next returns all of data as body payload; there is nothing left over.
func (CloseBody) Next(data []byte) (payload []byte) {
	return data
}
