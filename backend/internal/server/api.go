package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/reader"
	"github.com/soar/padinput/backend/internal/store"
)

const maxRecordSize = 64 * 1024

// session persists mappings added through the API or a websocket client.
type session struct {
	Input
	store *store.Store
}

func (s session) AddMapping(record string) (*mapping.Configuration, error) {
	cfg, err := s.Input.AddMapping(record)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Put(cfg, strings.TrimSpace(record)); err != nil {
			log.Printf("Mapping for %s not saved: %v", cfg.GUID, err)
		}
	}
	return cfg, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

type capabilitiesResponse struct {
	Axes        []string `json:"axes"`
	Buttons     []string `json:"buttons"`
	DeviceType  string   `json:"deviceType"`
	Connected   bool     `json:"connected"`
	HasMapping  bool     `json:"hasMapping"`
	MappingName string   `json:"mappingName,omitempty"`
}

type mappingResponse struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// flagNames splits the String form of a flag set.
func flagNames(s string) []string {
	if s == "None" {
		return []string{}
	}
	return strings.Split(s, "|")
}

func slotIndex(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["index"])
}

func (s *Server) listGamepads(w http.ResponseWriter, r *http.Request) {
	slots := s.input.Slots()
	if slots == nil {
		slots = []reader.SlotInfo{}
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) gamepadState(w http.ResponseWriter, r *http.Request) {
	index, err := slotIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := s.input.View(index)
	if err != nil {
		s.slotError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) gamepadCapabilities(w http.ResponseWriter, r *http.Request) {
	index, err := slotIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caps, err := s.input.Capabilities(index)
	if err != nil {
		s.slotError(w, err)
		return
	}
	resp := capabilitiesResponse{
		Axes:       flagNames(caps.Axes.String()),
		Buttons:    flagNames(caps.Buttons.String()),
		DeviceType: caps.DeviceType.String(),
		Connected:  caps.IsConnected,
		HasMapping: caps.HasMapping,
	}
	for _, slot := range s.input.Slots() {
		if slot.Index == index {
			resp.MappingName = slot.Mapping
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) slotError(w http.ResponseWriter, err error) {
	if errors.Is(err, joystick.ErrInvalidArgument) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) selectPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := strconv.Atoi(mux.Vars(r)["player"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.session.SetActiveByPlayerIndex(player) {
		writeError(w, http.StatusNotFound, joystick.ErrInvalidArgument)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// addMapping takes the record as the request body, or as the "mapping" field
// of a JSON body.
func (s *Server) addMapping(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	record := string(body)
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		var req struct {
			Mapping string `json:"mapping"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		record = req.Mapping
	}

	cfg, err := s.session.AddMapping(record)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mapping.ErrFormat) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	log.Printf("Mapping added: %s (%s)", cfg.Name, cfg.GUID)
	writeJSON(w, http.StatusCreated, mappingResponse{GUID: cfg.GUID.String(), Name: cfg.Name})
}

func (s *Server) getMapping(w http.ResponseWriter, r *http.Request) {
	guid, err := mapping.ParseGUID(mux.Vars(r)["guid"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.input.Mapping(guid)
	if err != nil {
		if errors.Is(err, reader.ErrNoRecord) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, rec+"\n")
}
