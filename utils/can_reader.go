package utils

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// CANReader defines the interface for reading CAN frames
type CANReader interface {
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

// SocketCANReader implements CANReader using Einride's socketcan
type SocketCANReader struct {
	conn   net.Conn
	recv   *socketcan.Receiver
	frames chan can.Frame
	err    error // set by pump before frames is closed
}

// NewSocketCANReader creates a new SocketCAN reader
func NewSocketCANReader(ctx context.Context, ifname string) (*SocketCANReader, error) {
	conn, err := socketcan.DialContext(ctx, "can", ifname)
	if err != nil {
		return nil, errors.Wrapf(err, "socketcan dial %s", ifname)
	}

	r := &SocketCANReader{
		conn:   conn,
		recv:   socketcan.NewReceiver(conn),
		frames: make(chan can.Frame, 64),
	}
	go r.pump()
	return r, nil
}

// pump owns the receiver; it exits when the socket is closed.
func (r *SocketCANReader) pump() {
	for r.recv.Receive() {
		r.frames <- r.recv.Frame()
	}
	r.err = r.recv.Err()
	if r.err == nil {
		r.err = errors.New("socketcan receiver closed")
	}
	close(r.frames)
}

// ReadFrame blocks until a frame arrives or ctx is done.
func (r *SocketCANReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	select {
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case frame, ok := <-r.frames:
		if !ok {
			return can.Frame{}, r.err
		}
		return frame, nil
	}
}

// Close closes the CAN socket
func (r *SocketCANReader) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
