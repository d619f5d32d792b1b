// Command memuserver is a minimal HTTP/WebSocket demonstration of the
// response agent's answer loop. It is not part of the memory core's
// stable API (orchestrator, recall, response, storage, category,
// embedder, embedcache, prompts) — it exists only to give this module a
// runnable entrypoint, the way the teacher's own example mains wire its
// SDK into a small demo server.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/nevamind-ai/memu-go/category"
	"github.com/nevamind-ai/memu-go/embedcache"
	"github.com/nevamind-ai/memu-go/embedder/mock"
	"github.com/nevamind-ai/memu-go/llm"
	"github.com/nevamind-ai/memu-go/prompts"
	"github.com/nevamind-ai/memu-go/recall"
	"github.com/nevamind-ai/memu-go/response"
	"github.com/nevamind-ai/memu-go/storage/filebackend"
)

func main() {
	dataDir := flag.String("data-dir", envOr("MEMU_DATA_DIR", "./memu-data"), "directory backing file storage")
	agentID := flag.String("agent-id", envOr("MEMU_AGENT_ID", "default"), "agent namespace to answer questions for")
	promptDir := flag.String("prompt-dir", envOr("MEMU_PROMPT_DIR", ""), "optional prompt template override directory")
	port := flag.String("port", envOr("PORT", "8080"), "listen port")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("[MEMUSERVER] no .env file loaded: %v", err)
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		log.Fatal("[MEMUSERVER] ANTHROPIC_API_KEY is required")
	}
	model := envOr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514")

	backend, err := filebackend.New(*dataDir)
	if err != nil {
		log.Fatalf("[MEMUSERVER] filebackend.New: %v", err)
	}

	registry, err := category.NewRegistryWithBuiltins()
	if err != nil {
		log.Fatalf("[MEMUSERVER] NewRegistryWithBuiltins: %v", err)
	}

	embed := embedcache.New(mock.New(256))
	recallAgent := recall.New(backend, embed, registry)

	client := llm.NewAnthropicClient(apiKey, model)
	promptStore := prompts.NewStore(*promptDir)
	respAgent := response.New(recallAgent, client, promptStore, *agentID)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/answer", newAnswerHandler(respAgent))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	log.Println("==============================================")
	log.Printf("memuserver listening on :%s", *port)
	log.Printf("data dir: %s", *dataDir)
	log.Printf("agent id: %s", *agentID)
	log.Println("==============================================")

	if err := http.ListenAndServe(":"+*port, mux); err != nil {
		log.Fatalf("[MEMUSERVER] ListenAndServe: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// answerRequest is one question sent over the socket.
type answerRequest struct {
	Question      string   `json:"question"`
	Users         []string `json:"users,omitempty"`
	MaxIterations int      `json:"max_iterations,omitempty"`
}

// answerEvent is one message streamed back: either an iteration trace
// entry or the final answer. All of a question's events are sent after
// its Answer call returns.
type answerEvent struct {
	Type    string                   `json:"type"`
	TraceID string                   `json:"trace_id,omitempty"`
	Trace   *response.IterationTrace `json:"trace,omitempty"`
	Answer  string                   `json:"answer,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// newAnswerHandler upgrades the connection and streams the response
// agent's answer loop for every question the client sends, one question
// per text frame, until the connection closes.
func newAnswerHandler(agent *response.Agent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[MEMUSERVER] upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			var req answerRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}

			result, err := agent.Answer(r.Context(), req.Question, req.Users, req.MaxIterations)
			if err != nil {
				writeEvent(conn, answerEvent{Type: "error", Error: err.Error()})
				continue
			}

			for i := range result.PerIterationTrace {
				writeEvent(conn, answerEvent{Type: "trace", TraceID: result.TraceID, Trace: &result.PerIterationTrace[i]})
			}
			writeEvent(conn, answerEvent{Type: "answer", TraceID: result.TraceID, Answer: result.Text})
		}
	}
}

func writeEvent(conn *websocket.Conn, ev answerEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
