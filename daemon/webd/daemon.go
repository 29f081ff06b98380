package webd

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	"github.com/olahol/melody"
	"github.com/rotblauer/catglobe/levels"
	"github.com/rotblauer/catglobe/params"
	"github.com/rotblauer/catglobe/tileidx"
)

// WebDaemon serves level set queries over HTTP.
// The Indexer is optional; without one, /index is not routed
// and footprints carry no visit counts.
type WebDaemon struct {
	Config   *params.WebDaemonConfig
	LevelSet *levels.LevelSet
	Indexer  *tileidx.Indexer

	logger         *slog.Logger
	started        time.Time
	melodyInstance *melody.Melody
	newTilesSub    event.Subscription
	countCache     *ttlcache.Cache[uint64, int]

	// mu guards melodyInstance, newTilesSub and server.
	mu     sync.Mutex
	server *http.Server
}

func NewWebDaemon(config *params.WebDaemonConfig, ls *levels.LevelSet, ix *tileidx.Indexer) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	if ls == nil {
		return nil, errors.New("no level set provided")
	}
	return &WebDaemon{
		Config:   config,
		LevelSet: ls,
		Indexer:  ix,
		logger:   slog.With("d", "web"),
		started:  time.Now(),
		countCache: ttlcache.New[uint64, int](
			ttlcache.WithTTL[uint64, int](config.CountCacheTTL)),
	}, nil
}

// Run starts the HTTP server and blocks until it stops,
// returning any server error other than a clean shutdown.
func (s *WebDaemon) Run() error {
	router := s.NewRouter()
	listener, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	go s.countCache.Start()
	defer s.countCache.Stop()

	server := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", listener.Addr())
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web daemon: %w", err)
	}
	return nil
}

// Stop closes the websocket sessions and the server.
func (s *WebDaemon) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newTilesSub != nil {
		s.newTilesSub.Unsubscribe()
		s.newTilesSub = nil
	}
	if s.melodyInstance != nil {
		_ = s.melodyInstance.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

func (s *WebDaemon) sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.melodyInstance == nil {
		return 0
	}
	return s.melodyInstance.Len()
}

func (s *WebDaemon) NewRouter() *mux.Router {
	m := s.initMelody()

	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = m.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/levels").HandlerFunc(s.handleLevels).Methods(http.MethodGet)
	apiJSONRoutes.Path("/levels/{level:[0-9]+}").HandlerFunc(s.handleLevel).Methods(http.MethodGet)
	apiJSONRoutes.Path("/select").HandlerFunc(s.handleSelect).Methods(http.MethodGet)
	apiJSONRoutes.Path("/tiles/count").HandlerFunc(s.handleTileCount).Methods(http.MethodGet)
	apiJSONRoutes.Path("/tiles/{level:[0-9]+}/{row:[0-9]+}/{column:[0-9]+}").HandlerFunc(s.handleTile).Methods(http.MethodGet)

	apiStreamRoutes := apiRoutes.NewRoute().Subrouter()
	apiStreamRoutes.Use(contentTypeMiddlewareFunc("application/x-ndjson"))
	apiStreamRoutes.Path("/tiles").HandlerFunc(s.handleTiles).Methods(http.MethodGet)

	if s.Indexer != nil {
		indexRoutes := apiJSONRoutes.NewRoute().Subrouter()
		indexRoutes.Use(tokenAuthenticationMiddleware)
		indexRoutes.Path("/index").HandlerFunc(s.handleIndex).Methods(http.MethodPost)
		apiJSONRoutes.Path("/index/stats/{level:[0-9]+}").HandlerFunc(s.handleIndexStats).Methods(http.MethodGet)
	}

	return router
}
