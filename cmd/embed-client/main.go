package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/fractalmind-ai/labelkit/pkg/protocol"
	"github.com/gorilla/websocket"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:18790/ws", "websocket server URL")
	similar := flag.String("similar", "", "query vocabulary neighbors for a word instead of embedding")
	topN := flag.Int("top", 10, "neighbor count for -similar")
	flag.Parse()

	req := buildRequest(*similar, *topN, flag.Args())

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(&req); err != nil {
		log.Fatalf("Write failed: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var resp protocol.Message
	if err := conn.ReadJSON(&resp); err != nil {
		log.Fatalf("Read failed: %v", err)
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		log.Fatalf("Marshal failed: %v", err)
	}

	fmt.Println(string(payload))
}

func buildRequest(similar string, topN int, texts []string) protocol.Message {
	if similar != "" {
		return protocol.Message{
			Kind:   protocol.MessageKindVocab,
			Action: protocol.ActionSimilar,
			Data:   protocol.SimilarRequest{Word: similar, TopN: topN},
		}
	}
	if len(texts) == 0 {
		texts = []string{"hello world"}
	}
	return protocol.Message{
		Kind:   protocol.MessageKindEmbed,
		Action: protocol.ActionEncode,
		Data:   protocol.EmbedRequest{Texts: texts},
	}
}
