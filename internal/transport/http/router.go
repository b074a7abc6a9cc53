package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"yochat/internal/handler"
	"yochat/internal/httputil"
	authmw "yochat/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FriendHandler       *handler.FriendHandler
	FeedHandler         *handler.FeedHandler
	PostHandler         *handler.PostHandler
	NotificationHandler *handler.NotificationHandler
	MediaHandler        *handler.MediaHandler // nil when object storage is not configured
	WSHandler           *handler.WSHandler
	JWTSecret           string
	AllowedOrigins      []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
		r.Post("/logout", cfg.AuthHandler.Logout)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", cfg.AuthHandler.Me)
			r.Put("/update", cfg.AuthHandler.UpdateProfile)
			r.Get("/search", cfg.UserHandler.Search)
			r.Post("/block", cfg.FriendHandler.Block)
			r.Post("/unblock", cfg.FriendHandler.Unblock)
			r.Get("/blocked", cfg.FriendHandler.ListBlocked)
		})

		r.Route("/friendship", func(r chi.Router) {
			r.Post("/sendRequest", cfg.FriendHandler.SendRequest)
			r.Post("/acceptRequest", cfg.FriendHandler.AcceptRequest)
			r.Post("/declineRequest", cfg.FriendHandler.DeclineRequest)
			r.Post("/cancelRequest", cfg.FriendHandler.CancelRequest)
			r.Post("/unfriend", cfg.FriendHandler.Unfriend)
			r.Get("/list/{username}", cfg.FriendHandler.ListFriends)
			r.Get("/pendingRequests", cfg.FriendHandler.PendingRequests)
			r.Get("/sentRequests", cfg.FriendHandler.SentRequests)
		})

		r.Route("/feed", func(r chi.Router) {
			r.Get("/posts", cfg.FeedHandler.GetPosts)
			r.Post("/like", cfg.FeedHandler.Like)
			r.Post("/savePost", cfg.FeedHandler.SavePost)
			r.Post("/unsavePost", cfg.FeedHandler.UnsavePost)
			r.Get("/saved", cfg.FeedHandler.Saved)
			r.Post("/createPost", cfg.PostHandler.Create)
			r.Get("/myPosts", cfg.PostHandler.MyPosts)
		})

		// Direct-to-R2 uploads
		if cfg.MediaHandler != nil {
			r.Post("/media/posts/presign", cfg.MediaHandler.PresignPostUpload)
		}

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Patch("/read", cfg.NotificationHandler.MarkRead)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
			r.Get("/unread-count", cfg.NotificationHandler.GetUnreadCount)
		})

		r.Post("/devices/token", cfg.NotificationHandler.RegisterToken)
		r.Delete("/devices/token", cfg.NotificationHandler.RemoveToken)

		r.Get("/ws", cfg.WSHandler.Connect)
	})

	return r
}
