// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/api/restutil"
	"github.com/stakecore/stakecore/api/types"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/node"
	"github.com/stakecore/stakecore/staking/events"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 7) / 10
	// buffered commits per connection
	commitBuffer = 64
)

type Subscriptions struct {
	node     *node.Node
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(node *node.Node, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		node: node,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

type eventMatcher struct {
	types     []events.Type
	account   *core.Address
	validator *core.Address
}

func parseMatcher(query url.Values) (*eventMatcher, error) {
	m := &eventMatcher{}
	for _, t := range query["type"] {
		m.types = append(m.types, events.Type(t))
	}
	if v := query.Get("account"); v != "" {
		addr, err := restutil.ParseAddress("account", v)
		if err != nil {
			return nil, err
		}
		m.account = &addr
	}
	if v := query.Get("validator"); v != "" {
		addr, err := restutil.ParseAddress("validator", v)
		if err != nil {
			return nil, err
		}
		m.validator = &addr
	}
	return m, nil
}

func (m *eventMatcher) match(ev *events.Event) bool {
	if len(m.types) > 0 && !slices.Contains(m.types, ev.Type) {
		return false
	}
	if m.account != nil && *m.account != ev.Account {
		return false
	}
	if m.validator != nil && *m.validator != ev.Validator {
		return false
	}
	return true
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	matcher, err := parseMatcher(req.URL.Query())
	if err != nil {
		return err
	}

	s.wg.Add(1)
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already replied
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	if err := s.pipe(conn, matcher); err != nil {
		logger.Debug("subscription closed", "err", err)
	}
	return nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, matcher *eventMatcher) error {
	ch := make(chan *node.CommitEvent, commitBuffer)
	sub := s.node.SubscribeCommits(ch)
	defer sub.Unsubscribe()

	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case commit := <-ch:
			for i := range commit.Events {
				ev := &commit.Events[i]
				if !matcher.match(ev) {
					continue
				}
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return err
				}
				if err := conn.WriteJSON(types.ConvertEvent(0, ev)); err != nil {
					return errors.Wrap(err, "write event")
				}
			}
		case err := <-sub.Err():
			return err
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return errors.Wrap(err, "ping")
			}
		case <-closed:
			return nil
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "service closed")
			return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		}
	}
}

// Close ends every open subscription and waits for the handlers to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvents))
}
