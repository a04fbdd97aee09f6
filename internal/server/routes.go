package server

import (
	"log"
	"net/http"

	"github.com/bitnetd/bitnetd/internal/server/handlers"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handlers.Root)
	mux.HandleFunc("GET /health", handlers.Health)

	completion := &handlers.CompletionHandler{Gateway: s.gw}
	mux.HandleFunc("POST /completion", completion.Completion)

	chat := &handlers.ChatHandler{Gateway: s.gw}
	mux.HandleFunc("POST /v1/chat/completions", chat.ChatCompletions)

	conv := &handlers.ConversationHandler{Gateway: s.gw}
	mux.HandleFunc("POST /v1/conversations", conv.Create)
	mux.HandleFunc("GET /v1/conversations/{id}", conv.Get)
	mux.HandleFunc("POST /v1/conversations/{id}/chat", conv.Chat)

	models := &handlers.ModelsHandler{Gateway: s.gw}
	mux.HandleFunc("GET /v1/models", models.List)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
