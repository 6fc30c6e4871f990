// Package toxitest runs an in-process fake of the toxiproxy HTTP API for
// tests. It keeps proxies and toxics in memory, answers both the legacy
// POST and the modern PATCH update verbs, and records every request so
// tests can assert on the exact wire traffic a client produced.
package toxitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

// Request is one recorded HTTP request.
type Request struct {
	Method string
	Path   string
}

type proxyRecord struct {
	Name     string  `json:"name"`
	Listen   string  `json:"listen"`
	Upstream string  `json:"upstream"`
	Enabled  bool    `json:"enabled"`
	Toxics   []toxic `json:"toxics"`
}

type toxic struct {
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	Stream     string                 `json:"stream"`
	Toxicity   float32                `json:"toxicity"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Server is a fake toxiproxy server.
type Server struct {
	hs *httptest.Server

	mu       sync.Mutex
	version  string
	proxies  map[string]*proxyRecord
	requests []Request
}

// NewServer starts a fake server reporting the given version string from
// GET /version. Close it when done.
func NewServer(version string) *Server {
	s := &Server{
		version: version,
		proxies: make(map[string]*proxyRecord),
	}

	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/version", s.getVersion).Methods("GET")
	r.HandleFunc("/reset", s.reset).Methods("POST")
	r.HandleFunc("/populate", s.populate).Methods("POST")
	r.HandleFunc("/proxies", s.listProxies).Methods("GET")
	r.HandleFunc("/proxies", s.createProxy).Methods("POST")
	r.HandleFunc("/proxies/{proxy}", s.getProxy).Methods("GET")
	r.HandleFunc("/proxies/{proxy}", s.updateProxy).Methods("POST", "PATCH")
	r.HandleFunc("/proxies/{proxy}", s.deleteProxy).Methods("DELETE")
	r.HandleFunc("/proxies/{proxy}/toxics", s.listToxics).Methods("GET")
	r.HandleFunc("/proxies/{proxy}/toxics", s.createToxic).Methods("POST")
	r.HandleFunc("/proxies/{proxy}/toxics/{toxic}", s.getToxic).Methods("GET")
	r.HandleFunc("/proxies/{proxy}/toxics/{toxic}", s.updateToxic).Methods("POST", "PATCH")
	r.HandleFunc("/proxies/{proxy}/toxics/{toxic}", s.deleteToxic).Methods("DELETE")

	s.hs = httptest.NewServer(r)
	return s
}

// URL is the base URL clients should connect to.
func (s *Server) URL() string { return s.hs.URL }

func (s *Server) Close() { s.hs.Close() }

// SetVersion changes the version reported by /version. It does not affect
// a client that already negotiated.
func (s *Server) SetVersion(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns the number of requests seen so far.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"version": version})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for _, proxy := range s.proxies {
		proxy.Enabled = true
		proxy.Toxics = proxy.Toxics[:0]
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) populate(w http.ResponseWriter, r *http.Request) {
	var incoming []*proxyRecord
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}

	s.mu.Lock()
	created := make([]*proxyRecord, 0, len(incoming))
	for _, proxy := range incoming {
		if proxy.Toxics == nil {
			proxy.Toxics = []toxic{}
		}
		s.proxies[proxy.Name] = proxy
		created = append(created, proxy)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{"proxies": created})
}

func (s *Server) listProxies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make(map[string]*proxyRecord, len(s.proxies))
	for name, proxy := range s.proxies {
		out[name] = proxy
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createProxy(w http.ResponseWriter, r *http.Request) {
	proxy := &proxyRecord{Enabled: true}
	if err := json.NewDecoder(r.Body).Decode(proxy); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}

	s.mu.Lock()
	if _, exists := s.proxies[proxy.Name]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "proxy already exists")
		return
	}
	if proxy.Toxics == nil {
		proxy.Toxics = []toxic{}
	}
	s.proxies[proxy.Name] = proxy
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, proxy)
}

func (s *Server) lookup(r *http.Request) (*proxyRecord, bool) {
	name := mux.Vars(r)["proxy"]
	proxy, ok := s.proxies[name]
	return proxy, ok
}

func (s *Server) getProxy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proxy, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}
	writeJSON(w, http.StatusOK, proxy)
}

func (s *Server) updateProxy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proxy, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}

	update := *proxy
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	proxy.Listen = update.Listen
	proxy.Upstream = update.Upstream
	proxy.Enabled = update.Enabled

	writeJSON(w, http.StatusOK, proxy)
}

func (s *Server) deleteProxy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(r); !ok {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}
	delete(s.proxies, mux.Vars(r)["proxy"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listToxics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proxy, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}
	writeJSON(w, http.StatusOK, proxy.Toxics)
}

func (s *Server) createToxic(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proxy, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}

	t := toxic{Toxicity: 1.0}
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if t.Stream == "" {
		t.Stream = "downstream"
	}
	if t.Name == "" {
		t.Name = fmt.Sprintf("%s_%s", t.Type, t.Stream)
	}

	for _, existing := range proxy.Toxics {
		if existing.Name == t.Name {
			writeError(w, http.StatusConflict, "toxic already exists")
			return
		}
	}
	proxy.Toxics = append(proxy.Toxics, t)

	writeJSON(w, http.StatusOK, t)
}

func (s *Server) findToxic(proxy *proxyRecord, name string) *toxic {
	for i := range proxy.Toxics {
		if proxy.Toxics[i].Name == name {
			return &proxy.Toxics[i]
		}
	}
	return nil
}

func (s *Server) getToxic(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proxy, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}
	t := s.findToxic(proxy, mux.Vars(r)["toxic"])
	if t == nil {
		writeError(w, http.StatusNotFound, "toxic not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateToxic(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proxy, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}
	t := s.findToxic(proxy, mux.Vars(r)["toxic"])
	if t == nil {
		writeError(w, http.StatusNotFound, "toxic not found")
		return
	}

	var update struct {
		Toxicity   *float32               `json:"toxicity"`
		Attributes map[string]interface{} `json:"attributes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if update.Toxicity != nil {
		t.Toxicity = *update.Toxicity
	}
	for key, value := range update.Attributes {
		if t.Attributes == nil {
			t.Attributes = make(map[string]interface{})
		}
		t.Attributes[key] = value
	}

	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteToxic(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proxy, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "proxy not found")
		return
	}

	name := mux.Vars(r)["toxic"]
	for i := range proxy.Toxics {
		if proxy.Toxics[i].Name == name {
			proxy.Toxics = append(proxy.Toxics[:i], proxy.Toxics[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "toxic not found")
}
