package api

const (
	ReportEndpoint         = "/report"
	ClassificationEndpoint = "/update_classification"
	ReadReportEndpoint     = "/read_report"
	LatestReportsEndpoint  = "/latest_reports"
	ScreenEndpoint         = "/screen"
	FilterEndpoint         = "/filter"
	FeeEndpoint            = "/fee"
	HelpEndpoint           = "/help"
	VersionEndpoint        = "/version"
	MetricsEndpoint        = "/metrics"
)

// Version is the only request envelope version the service accepts.
const Version = "1.0"

type ReportArgs struct {
	Version      string  `json:"version"` // Must be "1.0"
	Target       string  `json:"target"`  // 0x-prefixed 32-byte address of the drainer.
	FeeRecipient string  `json:"fee_recipient"`
	Amount       *uint64 `json:"amount,omitempty"` // Claimed stolen amount, base units.
	Timestamp    int64   `json:"timestamp"`
	Signature    string  `json:"signature"`
}

type ReportResponse struct {
	ReportCount uint32     `json:"report_count"`
	Record      RecordView `json:"record"`
}

type ClassificationArgs struct {
	Version    string   `json:"version"` // Must be "1.0"
	Target     string   `json:"target"`
	Category   int      `json:"category"`
	Methods    []int    `json:"methods"`
	Summary    string   `json:"summary"`
	Domains    []string `json:"domains"`
	Confidence int      `json:"confidence"`
	Timestamp  int64    `json:"timestamp"`
	Signature  string   `json:"signature"`
}

type ClassificationResponse struct {
	Record RecordView `json:"record"`
}

type AddressQuery struct {
	Address string `form:"address"`
}

type LatestQuery struct {
	Limit int `form:"limit,default=20"`
}

type RecordView struct {
	Address             string   `json:"address"`
	ReportCount         uint32   `json:"report_count"`
	FirstSeen           int64    `json:"first_seen"`
	LastSeen            int64    `json:"last_seen"`
	TotalAmountReported uint64   `json:"total_amount_reported"`
	RecentReporters     []string `json:"recent_reporters"`
	Category            string   `json:"category"`
	CategoryCode        uint8    `json:"category_code"`
	Methods             []int    `json:"methods"`
	Summary             string   `json:"summary"`
	Domains             []string `json:"domains"`
	Confidence          uint8    `json:"confidence"`
}

type LatestResponse struct {
	Records []RecordView `json:"records"`
}

type ScreenResponse struct {
	Address     string `json:"address"`
	Reported    bool   `json:"reported"`
	ReportCount uint32 `json:"report_count"`
	Category    string `json:"category,omitempty"`
}

type FeeResponse struct {
	BaseUnits uint64 `json:"base_units"`
	Amount    string `json:"amount"` // In whole tokens.
	Recipient string `json:"recipient,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
