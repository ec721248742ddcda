package ws

import "testing"

func testClient(memberID, buffer int) *Client {
	return &Client{memberID: memberID, send: make(chan []byte, buffer)}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub()
	a := testClient(1, 4)
	b := testClient(2, 4)
	hub.add(a)
	hub.add(b)

	hub.Broadcast([]byte(`{"type":"matchWon"}`))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if string(msg) != `{"type":"matchWon"}` {
				t.Errorf("Member %d got %q", c.memberID, msg)
			}
		default:
			t.Errorf("Member %d received nothing", c.memberID)
		}
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	slow := testClient(1, 1)
	hub.add(slow)

	hub.Broadcast([]byte("first"))
	hub.Broadcast([]byte("second")) // buffer full, must not block

	if got := <-slow.send; string(got) != "first" {
		t.Errorf("Got %q, want the first message", got)
	}
	select {
	case got := <-slow.send:
		t.Errorf("Unexpected extra message %q", got)
	default:
	}
}

func TestRemoveClosesSendOnce(t *testing.T) {
	hub := NewHub()
	c := testClient(3, 1)
	hub.add(c)

	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount %d, want 1", hub.ClientCount())
	}

	hub.remove(c)
	hub.remove(c) // second removal must be a no-op, not a double close

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount %d, want 0", hub.ClientCount())
	}
	if _, open := <-c.send; open {
		t.Error("Send channel still open after removal")
	}
}
