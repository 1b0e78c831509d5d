package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ReadyFunc сообщает, готов ли сервис обслуживать заказы.
// nil-ошибка означает готовность.
type ReadyFunc func() error

type Server struct {
	server *http.Server
}

func NewServer(addr string, ready ReadyFunc) *Server {
	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: newMux(ready),
		},
	}
}

func newMux(ready ReadyFunc) http.Handler {
	mux := http.NewServeMux()

	// Живость: отвечает, пока процесс работает
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Готовность: база доступна, заказы могут обрабатываться
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	return mux
}

func (s *Server) Start() error {
	slog.Info("HTTP сервер состояния запущен", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
