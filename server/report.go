package server

import (
	"net/http"

	"drainer-registry/api"
	"drainer-registry/auth"
	"drainer-registry/metrics"
	"drainer-registry/registry"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

func (h *handler) Report(c *gin.Context) {
	var args api.ReportArgs

	if err := c.ShouldBindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /report call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.") // 400
		return
	}

	if args.Version != api.Version {
		log.Errorf("Bad version in /report, expected: %s, got: %v", api.Version, args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 1.0.") // 406
		return
	}

	target, err := auth.ParseIdentity(args.Target)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad target: %v", err) // 400
		return
	}
	recipient, err := auth.ParseIdentity(args.FeeRecipient)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad fee recipient: %v", err) // 400
		return
	}

	reporter, err := h.verifier.Recover(auth.ReportDigest(target, recipient, args.Amount, args.Timestamp), args.Signature, args.Timestamp)
	if err != nil {
		log.Warnf("Unauthorized /report call: %v", err)
		metrics.ReportsTotal.WithLabelValues(resultOf(err)).Inc()
		c.String(http.StatusUnauthorized, err.Error()) // 401
		return
	}

	rec, err := h.registry.Report(c.Request.Context(), reporter, target, recipient, args.Amount)
	metrics.ReportsTotal.WithLabelValues(resultOf(err)).Inc()
	if err != nil {
		c.JSON(statusOf(err), api.ErrorResponse{Error: err.Error()})
		return
	}

	metrics.FeesCollectedTotal.Add(float64(h.registry.Fee()))
	if rec.ReportCount == 1 {
		metrics.RecordsCreatedTotal.Inc()
	}
	h.filter.Add(target)

	c.JSON(http.StatusOK, api.ReportResponse{
		ReportCount: rec.ReportCount,
		Record:      toView(rec),
	})
}

func (h *handler) UpdateClassification(c *gin.Context) {
	var args api.ClassificationArgs

	if err := c.ShouldBindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /update_classification call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.") // 400
		return
	}

	if args.Version != api.Version {
		log.Errorf("Bad version in /update_classification, expected: %s, got: %v", api.Version, args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 1.0.") // 406
		return
	}

	target, err := auth.ParseIdentity(args.Target)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad target: %v", err) // 400
		return
	}

	classification := registry.Classification{
		CategoryCode: args.Category,
		Methods:      make([]registry.Method, len(args.Methods)),
		Summary:      args.Summary,
		Domains:      args.Domains,
		Confidence:   args.Confidence,
	}
	for i, m := range args.Methods {
		if m < 0 || m > 255 {
			c.String(http.StatusBadRequest, "Method tag %d is outside 0..255.", m) // 400
			return
		}
		classification.Methods[i] = registry.Method(m)
	}

	caller, err := h.verifier.Recover(auth.ClassificationDigest(target, classification, args.Timestamp), args.Signature, args.Timestamp)
	if err != nil {
		log.Warnf("Unauthorized /update_classification call: %v", err)
		metrics.ClassificationUpdatesTotal.WithLabelValues(resultOf(err)).Inc()
		c.String(http.StatusUnauthorized, err.Error()) // 401
		return
	}
	if h.curator == registry.Empty || caller != h.curator {
		log.Warnf("Classification update for %s by non-curator %s", target.Hex(), caller.Hex())
		metrics.ClassificationUpdatesTotal.WithLabelValues("forbidden").Inc()
		c.String(http.StatusForbidden, "Only the curator may update classifications.") // 403
		return
	}

	rec, err := h.registry.UpdateClassification(c.Request.Context(), target, classification)
	metrics.ClassificationUpdatesTotal.WithLabelValues(resultOf(err)).Inc()
	if err != nil {
		c.JSON(statusOf(err), api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.ClassificationResponse{Record: toView(rec)})
}
