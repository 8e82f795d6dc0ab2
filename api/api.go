package api

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/the-lightning-land/smartd/portal"
)

type Config struct {
	Portal *portal.Controller
	Log    Logger
}

type Api struct {
	portal *portal.Controller
	router *mux.Router
	log    Logger
	page   []byte

	serverMtx sync.Mutex
	server    *http.Server
}

func New(config *Config) (*Api, error) {
	api := &Api{
		portal: config.Portal,
		router: mux.NewRouter(),
	}

	if config.Log != nil {
		api.log = config.Log
	} else {
		api.log = noopLogger{}
	}

	page, err := compressPage(indexPage)
	if err != nil {
		return nil, errors.Errorf("could not compress configuration page: %v", err)
	}

	api.page = page

	api.router.Use(api.loggingMiddleware)
	api.router.Use(api.captivePortalMiddleware)

	api.router.Handle("/", api.handleRoot())
	// Android captive portal detection
	api.router.Handle("/generate_204", api.handleRoot())
	// Microsoft captive portal detection
	api.router.Handle("/fwlink", api.handleRoot())

	api.router.Handle("/connections", api.handleGetConnections())
	api.router.Handle("/connect", api.handlePostConnect()).Methods(http.MethodPost)
	api.router.Handle("/connected", api.handleGetConnected())
	api.router.Handle("/events", api.handleGetEvents()).Methods(http.MethodGet)

	api.router.NotFoundHandler = api.handleNotFound()
	api.router.MethodNotAllowedHandler = api.handleMethodNotAllowed()

	return api, nil
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *Api) Serve(l net.Listener) error {
	a.serverMtx.Lock()
	a.server = &http.Server{Handler: a}
	server := a.server
	a.serverMtx.Unlock()

	err := server.Serve(l)
	if err != nil && err != http.ErrServerClosed {
		return errors.Errorf("Unable to serve api: %v", err)
	}

	return nil
}

func (a *Api) Shutdown(ctx context.Context) error {
	a.serverMtx.Lock()
	server := a.server
	a.serverMtx.Unlock()

	if server == nil {
		return nil
	}

	err := server.Shutdown(ctx)
	if err != nil {
		return errors.Errorf("Could not shut down api: %v", err)
	}

	return nil
}

func (a *Api) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.log.Debugf("%v %v%v", r.Method, r.Host, r.RequestURI)
		next.ServeHTTP(w, r)
	})
}
