package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mount регистрирует маршруты API; все, кроме /health, проходят через authenticate
func Mount(r chi.Router, tasks *TaskHandler, registrations *RegistrationHandler, authenticate func(http.Handler) http.Handler) {
	r.Get("/health", tasks.HealthCheck)

	r.Group(func(r chi.Router) {
		if authenticate != nil {
			r.Use(authenticate)
		}

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", tasks.ListTasks)  // GET /tasks
			r.Post("/", tasks.CreateTask) // POST /tasks

			r.Get("/today", tasks.TodayTasks)
			r.Get("/overdue", tasks.OverdueTasks)
			r.Get("/statistics", tasks.Statistics)
			r.Get("/calendar", tasks.Calendar)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", tasks.GetTask)
				r.Patch("/", tasks.UpdateTask)
				r.Delete("/", tasks.DeleteTask)
				r.Post("/complete", tasks.CompleteTask)
			})
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Post("/verify", registrations.Verify)
			r.Post("/confirm", registrations.Confirm)
			r.Post("/cancel", registrations.Cancel)
			r.Get("/pending", registrations.ListPending)
			r.Get("/{id}", registrations.Status)
		})
	})
}
