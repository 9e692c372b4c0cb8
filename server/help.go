package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

func Help(c *gin.Context) {
	log.Info("Call to /help")

	c.String(http.StatusOK, `
	Drainer Registry API, version 1.0:
	POST /report                 report a drainer address, paying the anti-spam fee.
	POST /update_classification  curator-only classification update.
	GET  /read_report?address=   the aggregated record of an address.
	GET  /latest_reports?limit=  most recently reported addresses.
	GET  /screen?address=        whether an address was reported.
	GET  /filter                 the pre-screen Bloom filter.
	GET  /fee                    the anti-spam fee.
	`)
}
