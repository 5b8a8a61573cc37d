package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/selection"
	"github.com/pefman/w40k-cheatsheet/internal/session"
	"github.com/pefman/w40k-cheatsheet/internal/stats"
)

const (
	writeWait = 10 * time.Second
	// room for the envelope around the largest accepted army list
	envelopeSlack = 64 << 10
)

// readLimit bounds a client frame. JSON escaping of newlines and quotes
// doubles their size, so an army list at the size cap still fits and gets
// rejected by the session with a message instead of a dropped connection.
func readLimit(maxList int64) int64 {
	return 2*maxList + envelopeSlack
}

type clientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.log.WithError(err).Warn("ws: upgrade failed")
		return
	}
	conn.SetReadLimit(readLimit(s.cfg.MaxListBytes))

	var log *logrus.Entry
	emit := func(m models.WsMsg) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			log.WithError(err).Debug("ws: write failed")
		}
	}
	sess := session.New(s.svc, emit, s.log, session.Options{MaxListBytes: s.cfg.MaxListBytes})
	log = s.log.WithFields(logrus.Fields{"session": sess.ID, "remote": r.RemoteAddr})
	log.Info("ws: connect")
	stats.SessionOpened()
	defer stats.SessionClosed()

	ctx, cancel := context.WithCancel(r.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sess.Run(ctx)
		// unblocks the reader when the server shuts down
		_ = conn.Close()
	}()

	readLoop(conn, sess, log)
	cancel()
	<-done
	log.Info("ws: closed")
}

// readLoop turns client frames into session events until the connection or
// the session goes away.
func readLoop(conn *websocket.Conn, sess *session.Session, log *logrus.Entry) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("ws: read error")
			}
			return
		}
		ev, err := decodeEvent(data)
		if err != nil {
			log.WithError(err).Debug("ws: bad message")
			ev = session.Malformed{Message: err.Error()}
		} else {
			log.Debugf("ws: recv %T", ev)
		}
		if err := sess.Dispatch(ev); err != nil {
			return
		}
	}
}

func decodeEvent(data []byte) (session.Event, error) {
	var in clientIn
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.New("Malformed message")
	}
	switch in.Type {
	case "generate":
		var g session.Generate
		if err := unmarshalData(in.Data, &g); err != nil {
			return nil, err
		}
		return g, nil
	case "select":
		var c selection.Change
		if err := unmarshalData(in.Data, &c); err != nil {
			return nil, err
		}
		return session.Select(c), nil
	case "cancel":
		return session.Cancel{}, nil
	case "submit":
		return session.Submit{}, nil
	case "reset":
		return session.Reset{}, nil
	case "example":
		return session.Example{}, nil
	default:
		return nil, errors.Errorf("Unknown message type %q", in.Type)
	}
}

func unmarshalData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("Message data is missing")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New("Malformed message data")
	}
	return nil
}
