// @title Giveth Bridge Relayer API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Giveth/giveth-bridge/api/core"
	"github.com/Giveth/giveth-bridge/api/utils"
	"github.com/Giveth/giveth-bridge/common"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
)

const (
	apiStartDelay      = 5 * time.Second
	apiShutdownTimeout = 5 * time.Second
)

// APIImpl serves the relay status controllers. Start blocks until the server stops.
type APIImpl struct {
	ctx        context.Context
	apiConfig  core.APIConfig
	handler    http.Handler
	startDelay time.Duration
	logger     hclog.Logger

	lock   sync.Mutex
	server *http.Server

	// buffered so Start can return when nobody disposes the api
	serverClosedCh chan struct{}
}

var _ core.API = (*APIImpl)(nil)

func NewAPI(
	ctx context.Context, apiConfig core.APIConfig,
	controllers []core.APIController, logger hclog.Logger,
) (
	*APIImpl, error,
) {
	apiKeys := make(map[string]struct{}, len(apiConfig.APIKeys))
	for _, apiKey := range apiConfig.APIKeys {
		apiKeys[apiKey] = struct{}{}
	}

	router := mux.NewRouter().StrictSlash(true)

	for _, controller := range controllers {
		for _, endpoint := range controller.GetEndpoints() {
			endpointPath := fmt.Sprintf("/%s/%s/%s", apiConfig.PathPrefix, controller.GetPathPrefix(), endpoint.Path)

			endpointHandler := endpoint.Handler
			if endpoint.APIKeyAuth {
				endpointHandler = withAPIKeyAuth(apiConfig.APIKeyHeader, apiKeys, endpointHandler, logger)
			}

			router.HandleFunc(endpointPath, endpointWrapper(endpoint.Path, endpointHandler, logger)).
				Methods(endpoint.Method)

			logger.Debug("Registered api endpoint", "endpoint", endpointPath, "method", endpoint.Method)
		}
	}

	handler := handlers.CORS(
		handlers.AllowedOrigins(apiConfig.AllowedOrigins),
		handlers.AllowedHeaders(apiConfig.AllowedHeaders),
		handlers.AllowedMethods(apiConfig.AllowedMethods),
	)(router)

	return &APIImpl{
		ctx:            ctx,
		apiConfig:      apiConfig,
		handler:        handler,
		startDelay:     apiStartDelay,
		logger:         logger,
		serverClosedCh: make(chan struct{}, 1),
	}, nil
}

func (api *APIImpl) Start() {
	// delay api start a bit, in case OS has not released port yet from a previous run
	select {
	case <-api.ctx.Done():
		return
	case <-time.After(api.startDelay):
	}

	api.logger.Debug("Checking process running on port",
		"port", api.apiConfig.Port, "process", utils.FormatProcessOnPort(api.apiConfig.Port))

	err := common.RetryForever(api.ctx, api.startDelay, func(ctx context.Context) error {
		api.logger.Debug("Trying to start api", "port", api.apiConfig.Port)

		srvCtx, cancelFunc := context.WithCancel(ctx)
		defer cancelFunc()

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", api.apiConfig.Port),
			Handler:           api.handler,
			ReadHeaderTimeout: 3 * time.Second,
			ConnContext:       func(ctx context.Context, c net.Conn) context.Context { return srvCtx },
			BaseContext:       func(l net.Listener) context.Context { return srvCtx },
		}

		api.setServer(server)

		err := server.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		api.logger.Error("Error while trying to start api. Retrying...", "err", err,
			"process", utils.FormatProcessOnPort(api.apiConfig.Port))

		_ = server.Close()

		return err
	})
	if err != nil {
		api.logger.Error("error after api ListenAndServe", "err", err)
	}

	api.logger.Debug("Stopped api")

	select {
	case api.serverClosedCh <- struct{}{}:
	default:
	}
}

func (api *APIImpl) Dispose() error {
	server := api.getServer()
	if server == nil {
		return nil
	}

	var apiErrors []error

	if err := server.Shutdown(context.Background()); err != nil {
		apiErrors = append(apiErrors, fmt.Errorf("error while trying to shutdown api server. err %w", err))
	}

	api.logger.Debug("Called api shutdown")

	select {
	case <-time.After(apiShutdownTimeout):
		api.logger.Debug("api not closed after a timeout")

		if err := server.Close(); err != nil {
			apiErrors = append(apiErrors, fmt.Errorf("error while trying to close api server. err: %w", err))
		}
	case <-api.serverClosedCh:
	}

	api.logger.Debug("Finished disposing")

	return errors.Join(apiErrors...)
}

func (api *APIImpl) setServer(server *http.Server) {
	api.lock.Lock()
	defer api.lock.Unlock()

	api.server = server
}

func (api *APIImpl) getServer() *http.Server {
	api.lock.Lock()
	defer api.lock.Unlock()

	return api.server
}

func endpointWrapper(path string, handler core.APIEndpointHandler, logger hclog.Logger) core.APIEndpointHandler {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		logger.Debug("endpoint called", "path", path, "url", r.URL)
		handler(w, r)
		logger.Debug("endpoint call finished", "path", path, "url", r.URL, "elapsed", time.Since(startTime))
	}
}

func withAPIKeyAuth(
	apiKeyHeader string, apiKeys map[string]struct{}, handler core.APIEndpointHandler, logger hclog.Logger,
) core.APIEndpointHandler {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(apiKeyHeader)
		if _, exists := apiKeys[apiKey]; apiKey == "" || !exists {
			utils.WriteUnauthorizedResponse(w, r, logger)

			return
		}

		handler(w, r)
	}
}
