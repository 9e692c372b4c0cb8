package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"drainer-registry/api"
	"drainer-registry/auth"
	"drainer-registry/common"
	"drainer-registry/metrics"
	"drainer-registry/registry"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const (
	defaultLatest = 20
	maxLatest     = 100
)

func (h *handler) ReadReport(c *gin.Context) {
	var q api.AddressQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.String(http.StatusBadRequest, "Could not read the query.") // 400
		return
	}
	address, err := auth.ParseIdentity(q.Address)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad address: %v", err) // 400
		return
	}

	rec, err := h.registry.Get(c.Request.Context(), address)
	if err != nil {
		if !errors.Is(err, registry.ErrRecordNotFound) {
			log.Errorf("Failed to read drainer report: %v", err)
		}
		c.JSON(statusOf(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toView(rec))
}

func (h *handler) LatestReports(c *gin.Context) {
	var q api.LatestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.String(http.StatusBadRequest, "Could not read the query.") // 400
		return
	}
	if q.Limit <= 0 {
		q.Limit = defaultLatest
	}
	if q.Limit > maxLatest {
		q.Limit = maxLatest
	}

	records, err := h.lister.Latest(c.Request.Context(), q.Limit)
	if err != nil {
		log.Errorf("Failed to read latest reports: %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}
	views := make([]api.RecordView, len(records))
	for i, rec := range records {
		views[i] = toView(rec)
	}
	c.JSON(http.StatusOK, api.LatestResponse{Records: views})
}

// Screen answers whether an address was reported. The store is only consulted
// when the pre-screen filter has a hit.
func (h *handler) Screen(c *gin.Context) {
	var q api.AddressQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.String(http.StatusBadRequest, "Could not read the query.") // 400
		return
	}
	address, err := auth.ParseIdentity(q.Address)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad address: %v", err) // 400
		return
	}

	resp := api.ScreenResponse{Address: address.Hex()}
	if !h.filter.MayContain(address) {
		metrics.ScreensTotal.WithLabelValues("filter_miss").Inc()
		c.JSON(http.StatusOK, resp)
		return
	}

	rec, err := h.registry.Get(c.Request.Context(), address)
	switch {
	case errors.Is(err, registry.ErrRecordNotFound):
		metrics.ScreensTotal.WithLabelValues("store_miss").Inc()
	case err != nil:
		log.Errorf("Failed to screen %s: %v", address.Hex(), err)
		c.Status(http.StatusInternalServerError) // 500
		return
	default:
		metrics.ScreensTotal.WithLabelValues("store_hit").Inc()
		resp.Reported = true
		resp.ReportCount = rec.ReportCount
		resp.Category = rec.Classification.String()
	}
	c.JSON(http.StatusOK, resp)
}

// Filter serves the pre-screen filter in the bloom/v3 binary encoding.
func (h *handler) Filter(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.filter.WriteTo(&buf); err != nil {
		log.Errorf("Failed to encode the pre-screen filter: %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}
	c.Header("X-Filter-Version", strconv.FormatUint(h.filter.Version(), 10))
	c.Data(http.StatusOK, "application/octet-stream", buf.Bytes())
}

func (h *handler) Fee(c *gin.Context) {
	fee := h.registry.Fee()
	resp := api.FeeResponse{
		BaseUnits: fee,
		Amount:    common.FromBase(fee).String(),
	}
	if h.recipient != registry.Empty {
		resp.Recipient = h.recipient.Hex()
	}
	c.JSON(http.StatusOK, resp)
}
