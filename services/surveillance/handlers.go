package surveillance

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"surveillance-core/internal/config"
	"surveillance-core/internal/engine"
	core "surveillance-core/internal/surveillance"
	"surveillance-core/internal/suspicion"
	"surveillance-core/internal/world"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeBody fills v from the request body; an empty body leaves v as is.
func decodeBody(r *http.Request, v interface{}) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) ZoneHeatHandler(w http.ResponseWriter, r *http.Request) {
	zoneID := mux.Vars(r)["zone_id"]
	s.mu.Lock()
	heat := s.engine.Memories.Heat(zoneID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, heat)
}

func (s *Service) ZoneMemoriesHandler(w http.ResponseWriter, r *http.Request) {
	zoneID := mux.Vars(r)["zone_id"]
	s.mu.Lock()
	memories := s.engine.Memories.Memories(zoneID)
	s.mu.Unlock()

	out := make([]suspicion.WitnessMemorySnapshot, 0, len(memories))
	for _, m := range memories {
		out = append(out, suspicion.ToSnapshot(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) SuppressMemoryHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	req := struct {
		Suppressed bool `json:"suppressed"`
	}{Suppressed: true}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	ok := s.engine.Memories.Suppress(vars["zone_id"], vars["memory_id"], req.Suppressed)
	heat := s.engine.Memories.Heat(vars["zone_id"])
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("memory not found"))
		return
	}
	writeJSON(w, http.StatusOK, heat)
}

func (s *Service) PurgeWitnessHandler(w http.ResponseWriter, r *http.Request) {
	witnessID := mux.Vars(r)["witness_id"]
	zoneID := r.URL.Query().Get("zone_id")
	s.mu.Lock()
	n := s.engine.Memories.PurgeWitness(witnessID, zoneID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"purged": n})
}

func (s *Service) AreaCamerasHandler(w http.ResponseWriter, r *http.Request) {
	cams, err := s.Cameras(mux.Vars(r)["area_id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, cams)
}

func (s *Service) HackCameraHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Mode      core.HackMode `json:"mode"`
		UntilMs   int64         `json:"until_ms"`
		Direction float64       `json:"direction"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cam, err := s.HackCamera(vars["area_id"], vars["camera_id"], req.Mode, req.UntilMs, req.Direction)
	switch {
	case errors.Is(err, ErrUnknownArea), errors.Is(err, ErrUnknownCamera):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
	default:
		writeJSON(w, http.StatusOK, cam)
	}
}

func (s *Service) ResetCameraHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cam, err := s.ResetCamera(vars["area_id"], vars["camera_id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, cam)
}

func (s *Service) AreasHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"active":  s.AreaIDs(),
		"builtin": config.BuiltinCameraZones(),
	})
}

func (s *Service) ZonesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := struct {
		HighestTier suspicion.HeatTier              `json:"highest_tier"`
		Zones       []suspicion.ZoneHeatComputation `json:"zones"`
	}{
		HighestTier: s.engine.Memories.HighestTier(),
		Zones:       []suspicion.ZoneHeatComputation{},
	}
	for _, id := range s.engine.Memories.ZoneIDs() {
		resp.Zones = append(resp.Zones, s.engine.Memories.Heat(id))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) ResetMemoryHandler(w http.ResponseWriter, r *http.Request) {
	s.ResetMemory()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) InitAreaHandler(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["area_id"]
	var req struct {
		ZoneID    string          `json:"zone_id"`
		TimeOfDay world.TimeOfDay `json:"time_of_day"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ZoneID == "" {
		req.ZoneID = areaID
	}
	writeJSON(w, http.StatusOK, s.InitializeArea(r.Context(), areaID, req.ZoneID, req.TimeOfDay))
}

func (s *Service) TeardownAreaHandler(w http.ResponseWriter, r *http.Request) {
	if !s.TeardownArea(mux.Vars(r)["area_id"]) {
		writeError(w, http.StatusNotFound, ErrUnknownArea)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) PausedHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	s.engine.Memories.SetPaused(req.Paused)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

func (s *Service) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.engine.Memories.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

// TickHandler runs a tick posted directly over HTTP, validated like a bus event.
func (s *Service) TickHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validator.ValidateBytes(data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var in engine.TickInput
	if err := json.Unmarshal(data, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.Tick(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
