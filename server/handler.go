package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/heronhoga/bars-fe/cache"
	"github.com/heronhoga/bars-fe/core/live"
	"github.com/heronhoga/bars-fe/core/session"
	"github.com/heronhoga/bars-fe/model"
	"github.com/heronhoga/bars-fe/web"
)

// BarsAPI is the upstream surface the pages use. *api.Client implements it.
type BarsAPI interface {
	live.BeatAPI

	Login(ctx context.Context, form model.LoginForm) (string, error)
	Register(ctx context.Context, form model.RegisterForm) (string, error)

	SearchBeats(ctx context.Context, token, q string, page int) (*model.Page[model.Beat], error)
	BeatsByUser(ctx context.Context, token string, page int) (*model.Page[model.Beat], error)
	LikedBeatsByUser(ctx context.Context, token string, page int) (*model.Page[model.Beat], error)
	FavoriteBeats(ctx context.Context) ([]model.Beat, error)

	CreateBeat(ctx context.Context, token string, form model.UploadForm) (string, error)
	EditBeat(ctx context.Context, token, id string, update model.BeatUpdate) (string, error)
	DeleteBeat(ctx context.Context, token, id string) (string, error)

	Profile(ctx context.Context, token string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, token string, form model.ProfileForm) (string, error)
}

// Handler 处理所有页面请求
type Handler struct {
	api       BarsAPI
	sessions  *session.Store
	store     cache.Store
	render    *web.Renderer
	hub       *live.Hub
	maxUpload int64
	upgrader  websocket.Upgrader
}

// NewHandler 创建新的页面处理器
func NewHandler(
	beats BarsAPI,
	sessions *session.Store,
	store cache.Store,
	render *web.Renderer,
	hub *live.Hub,
	maxUpload int64,
) *Handler {
	return &Handler{
		api:       beats,
		sessions:  sessions,
		store:     store,
		render:    render,
		hub:       hub,
		maxUpload: maxUpload,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router registers every page, action and asset route.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(recoverer, requestLogger, h.visitorMiddleware)

	router.PathPrefix("/static/").Handler(web.Static())
	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	router.HandleFunc("/", h.Landing).Methods(http.MethodGet)
	router.HandleFunc("/login", h.LoginPage).Methods(http.MethodGet)
	router.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	router.HandleFunc("/register", h.RegisterPage).Methods(http.MethodGet)
	router.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	router.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", h.Logout).Methods(http.MethodPost)

	router.HandleFunc("/home", h.AuthMiddleware(h.Home)).Methods(http.MethodGet)
	router.HandleFunc("/ws/feed", h.AuthMiddleware(h.FeedSocket)).Methods(http.MethodGet)

	router.HandleFunc("/search", h.AuthMiddleware(h.Search)).Methods(http.MethodGet)
	router.HandleFunc("/search/recent/clear", h.ClearRecent).Methods(http.MethodPost)

	router.HandleFunc("/upload", h.AuthMiddleware(h.UploadPage)).Methods(http.MethodGet)
	router.HandleFunc("/upload", h.AuthMiddleware(h.Upload)).Methods(http.MethodPost)

	router.HandleFunc("/profile", h.AuthMiddleware(h.ProfilePage)).Methods(http.MethodGet)
	router.HandleFunc("/profile/edit", h.AuthMiddleware(h.ProfileEditPage)).Methods(http.MethodGet)
	router.HandleFunc("/profile/edit", h.AuthMiddleware(h.ProfileEdit)).Methods(http.MethodPost)
	router.HandleFunc("/profile/beat/{id}/delete", h.AuthMiddleware(h.DeleteBeat)).Methods(http.MethodPost)
	router.HandleFunc("/profile/beat/{id}/draft", h.AuthMiddleware(h.SaveDraft)).Methods(http.MethodPost)
	router.HandleFunc("/profile/beat/{id}/cancel", h.AuthMiddleware(h.CancelEdit)).Methods(http.MethodPost)
	router.HandleFunc("/profile/beat/{id}/edit", h.AuthMiddleware(h.BeatEditPage)).Methods(http.MethodGet)
	router.HandleFunc("/profile/beat/{id}/edit", h.AuthMiddleware(h.BeatEdit)).Methods(http.MethodPost)

	router.HandleFunc("/beat/{id}/like", h.AuthMiddleware(h.Like)).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Page not found", http.StatusNotFound)
	})
	return router
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
