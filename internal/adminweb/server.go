// Package adminweb serves the token-protected operations dashboard
// and its JSON API for keywords, groups, and runtime settings.
package adminweb

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/taxi-order-bot/internal/keywords"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

// Repository covers the storage behind the group management API.
type Repository interface {
	FetchPrivateInviteRows(ctx context.Context, limit int) ([]db.PrivateInviteLink, error)
	UpsertPrivateInviteLink(ctx context.Context, inviteLink string, sourceChatID *int64, note string, active bool) error
	SetPrivateInviteActive(ctx context.Context, inviteLink string, active bool) (bool, error)
	DeletePrivateInvite(ctx context.Context, inviteLink string) (bool, error)

	FetchPublicGroups(ctx context.Context, limit int) ([]db.DiscoveredGroup, error)
	UpsertPublicGroupUsername(ctx context.Context, username, title, sourceQuery string) (int64, error)
	SetPublicGroupActive(ctx context.Context, username string, active bool) (bool, error)
	DeletePublicGroup(ctx context.Context, username string) (bool, error)
}

type Server struct {
	addr     string
	token    string
	keywords *keywords.Store
	runtime  *runtimeconfig.Service
	database Repository
	logger   *zerolog.Logger
}

func NewServer(addr, token string, kw *keywords.Store, runtime *runtimeconfig.Service, database Repository, logger *zerolog.Logger) *Server {
	return &Server{
		addr:     addr,
		token:    token,
		keywords: kw,
		runtime:  runtime,
		database: database,
		logger:   logger,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/keywords", s.handleListKeywords)
	mux.HandleFunc("POST /api/keywords", s.handleAddKeyword)
	mux.HandleFunc("POST /api/keywords/delete", s.handleDeleteKeyword)
	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("POST /api/groups/private/add", s.handlePrivateAdd)
	mux.HandleFunc("POST /api/groups/private/remove", s.handlePrivateRemove)
	mux.HandleFunc("POST /api/groups/private/toggle", s.handlePrivateToggle)
	mux.HandleFunc("POST /api/groups/public/add", s.handlePublicAdd)
	mux.HandleFunc("POST /api/groups/public/remove", s.handlePublicRemove)
	mux.HandleFunc("POST /api/groups/public/toggle", s.handlePublicToggle)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)

	return s.withAuth(mux)
}

// withAuth checks the admin token on every request except the health
// probe. The token travels as ?token= or in the X-Admin-Token header.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		logger := s.logger.With().
			Str("request_id", requestID).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Logger()

		if r.URL.Path != "/healthz" && s.token != "" {
			token := r.URL.Query().Get("token")
			if token == "" {
				token = r.Header.Get("X-Admin-Token")
			}

			if token != s.token {
				logger.Warn().Msg("unauthorized admin request")
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})

				return
			}
		}

		logger.Debug().Msg("admin request")
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// Start serves until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("admin web server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}
