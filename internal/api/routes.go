package api

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the health endpoints and the task API on r.
func RegisterRoutes(r chi.Router, tasks *TaskHandler, health *HealthHandler) {
	r.Get("/", health.Banner)
	r.Get("/health", health.Health)

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", tasks.ListTasks)
		r.Post("/", tasks.CreateTask)
		r.Delete("/", tasks.ClearCompleted)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", tasks.GetTask)
			r.Put("/", tasks.UpdateTask)
			r.Patch("/", tasks.UpdateTask)
			r.Delete("/", tasks.DeleteTask)
		})
	})
}
