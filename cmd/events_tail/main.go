// Command events_tail follows the event stream of a running server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"stellarcade/internal/ws"
)

func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	host := flag.String("host", "127.0.0.1:"+port, "server host:port")
	after := flag.Int64("after", 0, "replay events after this seq")
	contract := flag.String("contract", "", "only events of this contract")
	kinds := flag.String("kinds", "", "comma separated event kinds")
	flag.Parse()

	q := url.Values{}
	q.Set("after", strconv.FormatInt(*after, 10))
	if *contract != "" {
		q.Set("contract", *contract)
	}
	if *kinds != "" {
		q.Set("kinds", *kinds)
	}
	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws", RawQuery: q.Encode()}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial %s: %v", u.String(), err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			var out ws.Outbound
			if err := json.Unmarshal(msg, &out); err != nil {
				log.Printf("bad frame: %s", msg)
				continue
			}
			switch out.Type {
			case ws.MsgEvent:
				e := out.Event
				if e == nil {
					continue
				}
				fmt.Printf("%d\t%s\t%s\t%v\t%s\n", e.Seq, e.Contract, e.Kind, e.IDs, string(e.Value))
			case ws.MsgError:
				log.Printf("server error: %s", out.Message)
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		<-done
	}
}
