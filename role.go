package httpcore

// Role selects which state machine our party follows.
type Role uint8

const (
	Client Role = iota
	Server
)

func (r Role) String() string {
	if r == Client {
		return "client"
	}

	return "server"
}
