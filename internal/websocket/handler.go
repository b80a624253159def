package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wattshare/wattshare-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Браузерный клиент ходит с другого origin, проверка токена ниже
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler возвращает http-обработчик, который апгрейдит соединение
// и привязывает его к пользователю из JWT (?token=...)
func Handler(manager *Manager, jwtService *utils.JWTService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := jwtService.ExtractUserID(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Ошибка апгрейда WebSocket: %v", err)
			return
		}

		client := NewClient(userID, conn, manager)
		client.Start()
	}
}

// ListenAndServe поднимает отдельный HTTP-листенер для WebSocket.
// Запускается горутиной из main.
func ListenAndServe(addr string, manager *Manager, jwtService *utils.JWTService) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", Handler(manager, jwtService))
	return http.ListenAndServe(addr, mux)
}
