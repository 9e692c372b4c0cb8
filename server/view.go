package server

import (
	"drainer-registry/api"
	"drainer-registry/registry"
)

func toView(rec *registry.Record) api.RecordView {
	reporters := make([]string, 0, registry.RecentReportersCap)
	for _, r := range rec.RecentReporters {
		if r == registry.Empty {
			continue
		}
		reporters = append(reporters, r.Hex())
	}
	methods := make([]int, len(rec.ClassificationMethods))
	for i, m := range rec.ClassificationMethods {
		methods[i] = int(m)
	}
	domains := rec.ClassificationDomains
	if domains == nil {
		domains = []string{}
	}
	return api.RecordView{
		Address:             rec.Address.Hex(),
		ReportCount:         rec.ReportCount,
		FirstSeen:           rec.FirstSeen,
		LastSeen:            rec.LastSeen,
		TotalAmountReported: rec.TotalAmountReported,
		RecentReporters:     reporters,
		Category:            rec.Classification.String(),
		CategoryCode:        uint8(rec.Classification),
		Methods:             methods,
		Summary:             rec.ClassificationSummary,
		Domains:             domains,
		Confidence:          rec.ClassificationConfidence,
	}
}
