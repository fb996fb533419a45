package routes

import (
	"log/slog"
	"net/http"

	"blogledger/app/controllers"
	"blogledger/app/events"
	"blogledger/app/middleware"
	"blogledger/app/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are what the HTTP layer is built from. Registry may be nil,
// which disables /metrics and request instrumentation.
type Dependencies struct {
	Service  *services.BlogService
	Bus      *events.EventBus
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.Logger(logger.With("component", "http")))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.ContentTypeJSON)
	if deps.Registry != nil {
		router.Use(middleware.NewHTTPMetrics(deps.Registry).Middleware)
		router.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}

	blogController := controllers.NewBlogController(deps.Service)
	postController := controllers.NewPostController(deps.Service)
	commentController := controllers.NewCommentController(deps.Service)
	accountController := controllers.NewAccountController(deps.Service)

	api := router.PathPrefix("/api").Subrouter()
	signed := func(h http.HandlerFunc) http.Handler {
		return middleware.Authenticate(h)
	}

	// Blogs and profiles
	api.Handle("/blogs", signed(blogController.InitializeBlog)).Methods("POST")
	api.HandleFunc("/blogs/{author}", blogController.ShowBlog).Methods("GET")
	api.Handle("/profiles", signed(blogController.InitializeProfile)).Methods("POST")
	api.HandleFunc("/profiles/{author}", blogController.ShowProfile).Methods("GET")

	// Posts
	posts := api.PathPrefix("/posts").Subrouter()
	posts.Handle("", signed(postController.Create)).Methods("POST")
	posts.HandleFunc("/{author}/{postId:[0-9]+}", postController.Show).Methods("GET")
	posts.Handle("/{address}", signed(postController.Update)).Methods("PUT")
	posts.Handle("/{address}", signed(postController.Delete)).Methods("DELETE")

	// Comments
	posts.Handle("/{address}/comments", signed(commentController.Create)).Methods("POST")
	api.HandleFunc("/comments/{postAuthor}/{postId:[0-9]+}/{commentId:[0-9]+}", commentController.Show).Methods("GET")

	// Raw records and derivation
	api.HandleFunc("/accounts/{address}", accountController.Show).Methods("GET")
	api.HandleFunc("/derive/{kind:blog|profile}/{author}", accountController.Derive).Methods("GET")
	api.HandleFunc("/derive/{kind:post}/{author}/{postId:[0-9]+}", accountController.Derive).Methods("GET")
	api.HandleFunc(
		"/derive/{kind:comment}/{author}/{postId:[0-9]+}/{commentId:[0-9]+}",
		accountController.Derive,
	).Methods("GET")

	if deps.Bus != nil {
		eventController := controllers.NewEventController(deps.Bus, logger)
		api.HandleFunc("/events", eventController.Stream).Methods("GET")
	}

	return router
}
