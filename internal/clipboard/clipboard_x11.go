//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Without cgo the clipboard is served directly over X11: a hidden window
// owns CLIPBOARD and answers conversion requests from its offers.

var (
	initOnce sync.Once
	initErr  error
	owner    *selectionOwner
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		owner, initErr = newSelectionOwner()
	})
	return initErr
}

func writeImage(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.offer(map[xproto.Atom][]byte{owner.png: data})
}

func writeText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data := []byte(text)
	return owner.offer(map[xproto.Atom][]byte{
		owner.utf8:         data,
		owner.textPlain:    data,
		xproto.AtomString: data,
	})
}

type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window

	clipboard, targets, utf8, textPlain, png xproto.Atom

	mu     sync.Mutex
	offers map[xproto.Atom][]byte
}

func newSelectionOwner() (*selectionOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return nil, err
	}
	o := &selectionOwner{conn: conn, window: window}
	for _, a := range []struct {
		dst  *xproto.Atom
		name string
	}{
		{&o.clipboard, "CLIPBOARD"},
		{&o.targets, "TARGETS"},
		{&o.utf8, "UTF8_STRING"},
		{&o.textPlain, "text/plain;charset=utf-8"},
		{&o.png, "image/png"},
	} {
		reply, err := xproto.InternAtom(conn, false, uint16(len(a.name)), a.name).Reply()
		if err != nil {
			conn.Close()
			return nil, err
		}
		*a.dst = reply.Atom
	}
	go o.serve()
	return o, nil
}

func (o *selectionOwner) offer(offers map[xproto.Atom][]byte) error {
	o.mu.Lock()
	o.offers = offers
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.clipboard, xproto.TimeCurrentTime).Check()
}

func (o *selectionOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.offers = nil
			o.mu.Unlock()
		}
	}
}

// answer writes the requested target onto the requestor's property and
// tells it so; unknown targets are refused with property None.
func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}
	o.mu.Lock()
	offers := o.offers
	o.mu.Unlock()

	if e.Target == o.targets {
		list := []xproto.Atom{o.targets}
		for atom := range offers {
			list = append(list, atom)
		}
		buf := make([]byte, 4*len(list))
		for i, atom := range list {
			xgb.Put32(buf[4*i:], uint32(atom))
		}
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			xproto.AtomAtom, 32, uint32(len(list)), buf)
	} else if data, ok := offers[e.Target]; ok {
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			e.Target, 8, uint32(len(data)), data)
	} else {
		property = xproto.AtomNone
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}
