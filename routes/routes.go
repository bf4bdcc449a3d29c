package routes

import (
	"github.com/chimucheck/backend/handlers"
	appMiddleware "github.com/chimucheck/backend/middleware"
	"github.com/chimucheck/backend/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes mounts the full API surface. Public routes cover the site and
// the live scoreboard; everything that mutates tournament state sits behind
// JWT auth, with scoring and back-office operations restricted to admins.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	registrationHandler *handlers.RegistrationHandler,
	scoreHandler *handlers.ScoreHandler,
	resultsHandler *handlers.ResultsHandler,
	liveHandler *handlers.LiveHandler,
	newsHandler *handlers.NewsHandler,
	eventHandler *handlers.EventHandler,
	importHandler *handlers.ImportHandler,
	uploadHandler *handlers.UploadHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := appMiddleware.Authenticate(jwtSecret)
	adminOnly := appMiddleware.RequireRole(models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListTournaments)
			r.Get("/{id}", tournamentHandler.GetTournament)
			r.Get("/{id}/live", liveHandler.GetLiveView)
			r.Get("/{id}/registrations", registrationHandler.ListByTournament)

			// Player self-service registration.
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/{id}/registrations", registrationHandler.Register)
				r.Delete("/{id}/registrations", registrationHandler.Unregister)
			})

			// Tournament administration, scoring and results.
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(adminOnly)

				r.Post("/", tournamentHandler.CreateTournament)
				r.Put("/{id}", tournamentHandler.UpdateTournament)
				r.Patch("/{id}/status", tournamentHandler.UpdateStatus)
				r.Put("/{id}/photos", tournamentHandler.SetPhotos)
				r.Post("/{id}/image", tournamentHandler.UploadImage)
				r.Delete("/{id}", tournamentHandler.DeleteTournament)

				r.Patch("/{id}/registrations/{registrationID}/status", registrationHandler.SetStatus)

				r.Put("/{id}/scores/{playerID}", scoreHandler.UpdateScore)
				r.Put("/{id}/scores", scoreHandler.BulkUpdateScores)
				r.Post("/{id}/sessions", scoreHandler.OpenSession)

				r.Get("/{id}/results", resultsHandler.GetResults)
				r.Post("/{id}/results", resultsHandler.SaveResults)
				r.Post("/{id}/results/auto-assign", resultsHandler.AutoAssignWinners)
				r.Post("/{id}/results/toggle-position", resultsHandler.ToggleWinnerPosition)
			})
		})

		// Score editing sessions are keyed by session ID, not tournament.
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/edits", scoreHandler.ApplyEdit)
			r.Post("/undo", scoreHandler.Undo)
			r.Post("/redo", scoreHandler.Redo)
			r.Delete("/", scoreHandler.CloseSession)
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/{id}", playerHandler.GetPlayer)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Put("/{id}", playerHandler.UpdatePlayer)
				r.Post("/{id}/avatar", playerHandler.UploadAvatar)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(adminOnly)
				r.Get("/", playerHandler.ListPlayers)
				r.Patch("/{id}/approval", playerHandler.SetApproval)
				r.Patch("/{id}/chimucoins", playerHandler.AdjustChimucoins)
				r.Delete("/{id}", playerHandler.DeletePlayer)
			})
		})

		r.Route("/news", func(r chi.Router) {
			r.Get("/", newsHandler.ListNews)
			r.Get("/{id}", newsHandler.GetNews)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(adminOnly)
				r.Post("/", newsHandler.CreateNews)
				r.Put("/{id}", newsHandler.UpdateNews)
				r.Post("/{id}/cover", newsHandler.UploadCover)
				r.Delete("/{id}", newsHandler.DeleteNews)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Get("/{id}", eventHandler.GetEvent)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(adminOnly)
				r.Post("/", eventHandler.CreateEvent)
				r.Put("/{id}", eventHandler.UpdateEvent)
				r.Delete("/{id}", eventHandler.DeleteEvent)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/import/players", importHandler.ImportPlayers)
			r.Post("/upload", uploadHandler.Upload)
		})
	})

	router.Get("/ws/tournaments/{id}", webSocketHandler.ServeWs)
}
