package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apiCore "github.com/Giveth/giveth-bridge/api/core"
	"github.com/Giveth/giveth-bridge/api/utils"
	"github.com/Giveth/giveth-bridge/relayer/api/model/response"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type RelayStateControllerImpl struct {
	db     core.RelayStateStore
	logger hclog.Logger
}

var _ apiCore.APIController = (*RelayStateControllerImpl)(nil)

func NewRelayStateController(db core.RelayStateStore, logger hclog.Logger) *RelayStateControllerImpl {
	return &RelayStateControllerImpl{
		db:     db,
		logger: logger,
	}
}

func (*RelayStateControllerImpl) GetPathPrefix() string {
	return "RelayState"
}

func (c *RelayStateControllerImpl) GetEndpoints() []*apiCore.APIEndpoint {
	return []*apiCore.APIEndpoint{
		{Path: "Get", Method: http.MethodGet, Handler: c.get, APIKeyAuth: true},
		{Path: "List", Method: http.MethodGet, Handler: c.list, APIKeyAuth: true},
		{Path: "Cursors", Method: http.MethodGet, Handler: c.cursors, APIKeyAuth: true},
		{Path: "Counts", Method: http.MethodGet, Handler: c.counts, APIKeyAuth: true},
	}
}

func (c *RelayStateControllerImpl) get(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		utils.WriteErrorResponse(w, r, http.StatusBadRequest, errors.New("key missing from query"), c.logger)

		return
	}

	record, err := c.db.GetRecord(key)
	if err != nil {
		utils.WriteErrorResponse(w, r, http.StatusInternalServerError, err, c.logger)

		return
	}

	if record == nil {
		utils.WriteErrorResponse(w, r, http.StatusNotFound, fmt.Errorf("relay record %s not found", key), c.logger)

		return
	}

	utils.WriteResponse(w, r, http.StatusOK, response.NewRelayRecordResponse(record), c.logger)
}

func (c *RelayStateControllerImpl) list(w http.ResponseWriter, r *http.Request) {
	queryValues := r.URL.Query()

	status, err := core.ParseRelayStatus(queryValues.Get("status"))
	if err != nil {
		utils.WriteErrorResponse(w, r, http.StatusBadRequest, err, c.logger)

		return
	}

	limit := defaultListLimit

	if limitStr := queryValues.Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxListLimit {
			utils.WriteErrorResponse(w, r, http.StatusBadRequest,
				fmt.Errorf("limit must be between 1 and %d", maxListLimit), c.logger)

			return
		}
	}

	records, err := c.db.GetRecordsByStatus(status, limit)
	if err != nil {
		utils.WriteErrorResponse(w, r, http.StatusInternalServerError, err, c.logger)

		return
	}

	utils.WriteResponse(w, r, http.StatusOK, response.NewRelayRecordsResponse(status, records), c.logger)
}

func (c *RelayStateControllerImpl) cursors(w http.ResponseWriter, r *http.Request) {
	cursors, err := c.db.GetAllCursors()
	if err != nil {
		utils.WriteErrorResponse(w, r, http.StatusInternalServerError, err, c.logger)

		return
	}

	utils.WriteResponse(w, r, http.StatusOK, response.NewScanCursorsResponse(cursors), c.logger)
}

func (c *RelayStateControllerImpl) counts(w http.ResponseWriter, r *http.Request) {
	counts, err := c.db.CountByStatus()
	if err != nil {
		utils.WriteErrorResponse(w, r, http.StatusInternalServerError, err, c.logger)

		return
	}

	utils.WriteResponse(w, r, http.StatusOK, response.NewStatusCountsResponse(counts), c.logger)
}
