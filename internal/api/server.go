package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/music-engine/backend/internal/enrich"
	"github.com/music-engine/backend/internal/recommend"
)

type Server struct {
	Engine *recommend.Engine
	Logger *logrus.Entry
	Router *http.ServeMux
}

func NewServer(eng *recommend.Engine, logger *logrus.Entry) *Server {
	s := &Server{
		Engine: eng,
		Logger: logger,
		Router: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/api/v1/recommend", s.handleRecommend)
	s.Router.HandleFunc("/api/v1/songs", s.handleSongs)
	s.Router.HandleFunc("/api/v1/artists", s.handleArtists)
	s.Router.HandleFunc("/api/v1/status", s.handleStatus)
}

func (s *Server) Start(addr string) error {
	s.Logger.Infof("Starting API Server on %s", addr)
	return http.ListenAndServe(addr, s.Router)
}

// Responses
type ErrorResponse struct {
	Error string `json:"error"`
}

type RecommendResponse struct {
	Seed    string               `json:"seed"`
	Results []RecommendationView `json:"results"`
}

type RecommendationView struct {
	Song   string            `json:"song"`
	Artist string            `json:"artist"`
	Score  float32           `json:"score"`
	Info   *enrich.TrackInfo `json:"info,omitempty"`
}

type SongsResponse struct {
	Songs []string `json:"songs"`
}

type ArtistsResponse struct {
	Artists []string `json:"artists"`
}

type StatusResponse struct {
	Songs     int    `json:"songs"`
	Dimension int    `json:"dimension"`
	Queries   int64  `json:"queries_served"`
	Uptime    string `json:"uptime"`
}

// Handlers

// handleRecommend serves the core similarity query. An unknown seed song is
// a normal outcome and returns an empty result list, not an error status.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	seed := r.URL.Query().Get("song")
	if seed == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'song' is required"})
		return
	}

	topK := 0
	if k := r.URL.Query().Get("k"); k != "" {
		parsed, err := strconv.Atoi(k)
		if err != nil || parsed <= 0 {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'k' must be a positive integer"})
			return
		}
		topK = parsed
	}

	hideNoPreview := false
	if v := r.URL.Query().Get("hide_no_preview"); v != "" {
		hideNoPreview, _ = strconv.ParseBool(v)
	}

	results := s.Engine.Recommend(r.Context(), seed, topK, recommend.Options{
		HideNoPreview: hideNoPreview,
	})

	// Rank order must be preserved exactly in the response.
	response := RecommendResponse{
		Seed:    seed,
		Results: make([]RecommendationView, len(results)),
	}
	for i, res := range results {
		response.Results[i] = RecommendationView{
			Song:   res.Title,
			Artist: res.Artist,
			Score:  res.Score,
			Info:   res.Info,
		}
	}

	jsonResponse(w, http.StatusOK, response)
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	table := s.Engine.Bundle().Table
	artist := r.URL.Query().Get("artist")

	var songs []string
	if artist == "" {
		songs = table.Titles()
	} else {
		for i := range table {
			if table[i].Artist == artist {
				songs = append(songs, table[i].Title)
			}
		}
	}

	jsonResponse(w, http.StatusOK, SongsResponse{Songs: songs})
}

func (s *Server) handleArtists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonResponse(w, http.StatusOK, ArtistsResponse{Artists: s.Engine.Bundle().Table.Artists()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, StatusResponse{
		Songs:     len(s.Engine.Bundle().Table),
		Dimension: s.Engine.Bundle().Index.Dim(),
		Queries:   s.Engine.Queries(),
		Uptime:    time.Since(s.Engine.StartTime()).String(),
	})
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
