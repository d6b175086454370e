package network

// EventHandler connects the transport to the game. All three callbacks run on the hub
// goroutine, one at a time.
type EventHandler interface {
	OnConnect(c *Client)

	// OnDisconnect runs once per client, after its socket is gone.
	OnDisconnect(c *Client)

	OnMessage(c *Client, msg Message)
}
