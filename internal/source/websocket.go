package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/dlscope/dlscope/internal/datasource"
)

// Feed is a snapshot backend over a websocket endpoint pushing datapoints
// as binary or text messages, e.g. a remote sensor bridge. Every message is
// taken to describe the current state of the measured world, so snapshot
// and default fetch both read the next message.
type Feed struct {
	url    string
	header http.Header
	conn   *websocket.Conn
	seq    int
}

// NewFeed creates a websocket feed backend for the given URL
// (ws:// or wss://).
func NewFeed(url string) *Feed {
	return &Feed{url: url}
}

// SetHeader sets additional handshake headers, e.g. authorization.
func (f *Feed) SetHeader(header http.Header) {
	f.header = header
}

// Kind implements datasource.Backend.
func (f *Feed) Kind() string { return "websocket" }

// PrepareData dials the endpoint.
func (f *Feed) PrepareData(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, f.header)
	if err != nil {
		return errors.Wrapf(err, "dialing %s", f.url)
	}
	f.conn = conn
	f.seq = 0
	return nil
}

// UnprepareData closes the connection, attempting a clean close handshake.
func (f *Feed) UnprepareData() error {
	if f.conn == nil {
		return nil
	}
	deadline := time.Now().Add(time.Second)
	f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	err := f.conn.Close()
	f.conn = nil
	return err
}

// FetchSnapshot reads the next message from the feed.
func (f *Feed) FetchSnapshot(ctx context.Context) (datasource.Datapoint, error) {
	if deadline, ok := ctx.Deadline(); ok {
		f.conn.SetReadDeadline(deadline)
	} else {
		f.conn.SetReadDeadline(time.Time{})
	}
	_, message, err := f.conn.ReadMessage()
	if err != nil {
		return datasource.Datapoint{}, errors.Wrapf(err, "reading from %s", f.url)
	}
	f.seq++
	return datasource.Datapoint{
		Bytes: message,
		Name:  fmt.Sprintf("message-%d", f.seq),
	}, nil
}
