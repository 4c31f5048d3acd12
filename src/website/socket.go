package website

import (
	"net/http"

	"github.com/forumkit/anonboard/src/models"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type composerMessage struct {
	Action    string      `json:"action"`
	Anonymous models.Flag `json:"anonymous"`
}

type composerReply struct {
	Action    string `json:"action"`
	Anonymous bool   `json:"anonymous"`
	Error     string `json:"error,omitempty"`
}

/*
ComposerSocket holds the composer's anonymity toggle state for the duration
of a composing session. The toggle is per connection; nothing is persisted
until the draft is actually submitted, where the flag rides along in the
submission body.
*/
func (s *websiteRoutes) ComposerSocket(c *RequestContext) ResponseData {
	if c.CurrentUser == nil {
		return c.ErrorResponse(http.StatusUnauthorized, ErrNotAuthenticated)
	}

	conn, err := upgrader.Upgrade(c.Res, c.Req, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		c.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return ResponseData{hijacked: true}
	}
	defer conn.Close()

	anonymous := false
	for {
		var msg composerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Action {
		case "toggleAnonymous":
			anonymous = msg.Anonymous.Bool()
			err = conn.WriteJSON(composerReply{Action: msg.Action, Anonymous: anonymous})
		default:
			err = conn.WriteJSON(composerReply{Action: msg.Action, Error: "unknown action"})
		}
		if err != nil {
			break
		}
	}

	return ResponseData{hijacked: true}
}
