package api

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/inkwell-press/inkwell-server/service/comments"
	"github.com/inkwell-press/inkwell-server/service/interactions"
	"github.com/inkwell-press/inkwell-server/service/moderation"
	"github.com/inkwell-press/inkwell-server/service/posts"
	"github.com/inkwell-press/inkwell-server/service/user"
	"github.com/inkwell-press/inkwell-server/service/views"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	userHandler := user.NewHandler(s.db)
	userHandler.RegisterRoutes(subrouter)

	postHandler := posts.NewHandler(s.db)
	postHandler.RegisterRoutes(subrouter)

	interactionHandler := interactions.NewHandler(s.db)
	interactionHandler.RegisterRoutes(subrouter)

	moderationHandler := moderation.NewHandler(s.db)
	moderationHandler.RegisterRoutes(subrouter)

	commentHandler := comments.NewHandler(s.db)
	commentHandler.RegisterRoutes(subrouter)

	viewHandler := views.NewHandler(s.db)
	viewHandler.RegisterRoutes(subrouter)

	origins := []string{"*"}
	if env := os.Getenv("ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, handlers.LoggingHandler(os.Stdout, cors(router)))
}
