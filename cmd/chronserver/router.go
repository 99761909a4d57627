package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/interpose/middleware"
	"github.com/justinas/alice"

	"github.com/Darkarion17/paleochron/compileinfo"
)

func router(st *store) http.Handler {
	router := mux.NewRouter()
	POST := router.Methods("POST").Subrouter()
	GET := router.Methods("GET", "HEAD").Subrouter()
	PUT := router.Methods("PUT").Subrouter()

	h := handler{store: st}

	GET.HandleFunc("/sections/{id}", h.GetSection)
	GET.HandleFunc("/sessions/{id}", h.GetSession)

	PUT.HandleFunc("/sections/{id}", h.PutSection)

	POST.HandleFunc("/sections/{id}", h.PutSection)
	POST.HandleFunc("/sections/{id}/tiepoints", h.AddTiePoint)
	POST.HandleFunc("/suggest", h.Suggest)
	POST.HandleFunc("/composite", h.Composite)
	POST.HandleFunc("/sessions", h.CreateSession)
	POST.HandleFunc("/sessions/{id}/{action:(?:align|accept|reject|cancel)}", h.SessionAction)

	standard := alice.New(
		// Log all requests to STDOUT
		middleware.GorillaLog(),
		serverHeader,
	)

	return standard.Then(router)
}

func serverHeader(next http.Handler) http.Handler {
	short := compileinfo.Get().Short()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", short)
		next.ServeHTTP(w, r)
	})
}
