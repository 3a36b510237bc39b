package surveillance

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"surveillance-core/internal/observability"
)

type HTTPServer struct {
	server *http.Server
	router *mux.Router
}

func NewHTTPServer(addr string) *HTTPServer {
	router := mux.NewRouter()

	srv := &http.Server{
		Addr:         addr,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      handlers.LoggingHandler(os.Stdout, handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(router)),
	}

	return &HTTPServer{
		server: srv,
		router: router,
	}
}

func (hs *HTTPServer) Start() {
	if hs.server.Addr == "" {
		return
	}
	go func() {
		log.Printf("HTTP server starting on %s", hs.server.Addr)
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()
}

func (hs *HTTPServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := hs.server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("HTTP server stopped")
}

func (hs *HTTPServer) RegisterRoutes(service *Service, hub *Hub, metrics *observability.Metrics) {
	hs.router.Use(metrics.Middleware)
	hs.router.Handle("/metrics", metrics.Handler()).Methods("GET")
	hs.router.HandleFunc("/ws/hud", hub.HandleWebSocket)

	hs.router.HandleFunc("/healthz", service.HealthHandler).Methods("GET")
	hs.router.HandleFunc("/zones", service.ZonesHandler).Methods("GET")
	hs.router.HandleFunc("/zones/{zone_id}/heat", service.ZoneHeatHandler).Methods("GET")
	hs.router.HandleFunc("/zones/{zone_id}/memories", service.ZoneMemoriesHandler).Methods("GET")
	hs.router.HandleFunc("/zones/{zone_id}/memories/{memory_id}/suppress", service.SuppressMemoryHandler).Methods("POST")
	hs.router.HandleFunc("/witnesses/{witness_id}", service.PurgeWitnessHandler).Methods("DELETE")
	hs.router.HandleFunc("/areas", service.AreasHandler).Methods("GET")
	hs.router.HandleFunc("/areas/{area_id}/cameras", service.AreaCamerasHandler).Methods("GET")
	hs.router.HandleFunc("/areas/{area_id}/cameras/{camera_id}/hack", service.HackCameraHandler).Methods("POST")
	hs.router.HandleFunc("/areas/{area_id}/cameras/{camera_id}/reset", service.ResetCameraHandler).Methods("POST")
	hs.router.HandleFunc("/areas/{area_id}/init", service.InitAreaHandler).Methods("POST")
	hs.router.HandleFunc("/areas/{area_id}", service.TeardownAreaHandler).Methods("DELETE")
	hs.router.HandleFunc("/memory/reset", service.ResetMemoryHandler).Methods("POST")
	hs.router.HandleFunc("/memory/paused", service.PausedHandler).Methods("PUT")
	hs.router.HandleFunc("/snapshot", service.SnapshotHandler).Methods("GET")
	hs.router.HandleFunc("/ticks", service.TickHandler).Methods("POST")
}

// Handler exposes the router, mainly for tests.
func (hs *HTTPServer) Handler() http.Handler {
	return hs.router
}
