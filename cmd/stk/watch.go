package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"studiosim/internal/game"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream the studio's events as they happen",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			feedURL, err := newClient(apiBase).FeedURL(sess.CompanyID)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
			conn, resp, err := d.DialContext(ctx, feedURL, http.Header{"Authorization": {"Bearer " + sess.Key}})
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			if err != nil {
				if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
					return fmt.Errorf("feed refused: %s", resp.Status)
				}
				return err
			}
			defer conn.Close()

			go func() {
				<-ctx.Done()
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
					time.Now().Add(time.Second))
				_ = conn.Close()
			}()

			printInfo(fmt.Sprintf("Watching %s. Ctrl-C to stop.", sess.Name))
			for {
				var ev game.Event
				if err := conn.ReadJSON(&ev); err != nil {
					if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						return nil
					}
					return err
				}
				line := eventLine(ev)
				switch {
				case ev.GameOver:
					printError(line)
				case ev.Headline():
					printSuccess(line)
				default:
					printInfo(line)
				}
			}
		},
	}
}
