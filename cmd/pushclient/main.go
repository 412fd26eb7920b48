// Command pushclient streams a local .webm file to a running webmstreamd
// over the upstream push protocol, at roughly the pace a live recorder
// would produce it. It exists to exercise the follower and transport
// layers end to end without a browser in the loop.
package main

import (
	"flag"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

var (
	serverAddr = flag.String("addr", "127.0.0.1:8088", "webmstreamd address")
	filePath   = flag.String("file", "", "path to a .webm file to push")
	chunkSize  = flag.Int("chunk-size", 32*1024, "bytes per WebSocket message")
	interval   = flag.Duration("interval", 50*time.Millisecond, "delay between messages")
)

func main() {
	flag.Parse()
	if *filePath == "" {
		log.Fatal("-file is required")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("open %s: %v", *filePath, err)
	}
	defer f.Close()

	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/jrec/push"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial %s: %v", u.String(), err)
	}
	defer conn.Close()

	// The server's first message is a diagnostic text line naming the file
	// it chose to record into; not part of the recording itself.
	if _, name, err := conn.ReadMessage(); err == nil {
		log.Printf("server recording to %s", name)
	}

	buf := make([]byte, *chunkSize)
	var total int64
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if err := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); err != nil {
				log.Fatalf("write: %v", err)
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			log.Fatalf("read: %v", rerr)
		}
		time.Sleep(*interval)
	}
	log.Printf("pushed %d bytes from %s", total, *filePath)
}
