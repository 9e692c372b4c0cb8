package server

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"drainer-registry/api"
	"drainer-registry/auth"
	"drainer-registry/common"
	"drainer-registry/common/version"
	"drainer-registry/db"
	"drainer-registry/memstore"
	"drainer-registry/metrics"
	"drainer-registry/rabbitmq"
	"drainer-registry/registry"
	"drainer-registry/screen"

	"github.com/apex/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "drainer-registry"

var (
	serverPort      = flag.Int("port", 8080, "The port used by the service.")
	storeKind       = flag.String("store", "mysql", "Record store: mysql or memory.")
	curatorIdentity = flag.String("curator_identity", "", "Hex identity allowed to update classifications.")
	feeRecipient    = flag.String("fee_recipient", "", "Hex identity every anti-spam fee must be paid to. Any recipient is accepted when empty.")
	reservedTargets = flag.String("reserved_targets", "", "Comma separated hex identities that can never be reported.")
	signatureMaxAge = flag.Duration("signature_max_age", 5*time.Minute, "Maximum age of a signed request.")
	amqpURL         = flag.String("amqp_url", "", "RabbitMQ URL. Events are only logged when empty.")
	amqpExchange    = flag.String("amqp_exchange", "drainer-registry", "RabbitMQ exchange for registry events.")
	amqpRoutingKey  = flag.String("amqp_routing_key", "drainer-events", "RabbitMQ routing key for registry events.")
	bloomCapacity   = flag.Uint("bloom_capacity", 1_000_000, "Expected number of reported addresses in the pre-screen filter.")
	bloomFPRate     = flag.Float64("bloom_fp_rate", 0.001, "False positive rate of the pre-screen filter.")
	devBalances     = flag.String("dev_balances", "", "Memory store only: comma separated id=tokens balances to seed.")
)

// Lister is the read side of a store used by the listing endpoints.
type Lister interface {
	screen.Lister
	Latest(ctx context.Context, limit int) ([]*registry.Record, error)
}

type handler struct {
	registry *registry.Registry
	verifier *auth.Verifier
	curator  ethcommon.Hash
	// recipient is the pinned fee recipient, zero when any is accepted.
	recipient ethcommon.Hash
	filter    *screen.Filter
	lister    Lister
}

func NewRouter(h *handler) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET(api.VersionEndpoint, func(c *gin.Context) {
		c.JSON(200, version.Get(serviceName))
	})
	router.GET(api.HelpEndpoint, Help)
	router.GET(api.MetricsEndpoint, gin.WrapH(promhttp.Handler()))
	router.GET(api.FeeEndpoint, h.Fee)
	router.POST(api.ReportEndpoint, h.Report)
	router.POST(api.ClassificationEndpoint, h.UpdateClassification)
	router.GET(api.ReadReportEndpoint, h.ReadReport)
	router.GET(api.LatestReportsEndpoint, h.LatestReports)
	router.GET(api.ScreenEndpoint, h.Screen)
	router.GET(api.FilterEndpoint, h.Filter)
	return router
}

func StartService() {
	log.Info("Starting the service...")
	metrics.Register()

	var (
		store  registry.Store
		lister Lister
	)
	switch *storeKind {
	case "mysql":
		dbc, err := common.DBConnect()
		if err != nil {
			log.Errorf("Error connecting to the database: %v", err)
			return
		}
		defer dbc.Close()
		if err := db.InitSchema(dbc); err != nil {
			log.Errorf("Error initializing the schema: %v", err)
			return
		}
		s := db.NewStore(dbc)
		store, lister = s, s
	case "memory":
		s := memstore.New()
		if err := seedBalances(s, *devBalances); err != nil {
			log.Errorf("Bad -dev_balances: %v", err)
			return
		}
		store, lister = s, s
	default:
		log.Errorf("Unknown store %q, expecting mysql or memory", *storeKind)
		return
	}

	ids, err := parseIdentities()
	if err != nil {
		log.Errorf("Bad configuration: %v", err)
		return
	}

	var sink registry.EventSink = registry.LogSink{}
	if *amqpURL != "" {
		publisher, err := rabbitmq.NewPublisher(*amqpURL, *amqpExchange, *amqpRoutingKey)
		if err != nil {
			log.Errorf("Error creating the RabbitMQ publisher: %v", err)
			return
		}
		defer publisher.Close()
		sink = publisher
	}

	reg := registry.New(store, registry.NewGate(ids.recipient, ids.reserved...), countingSink{sink}, registry.SystemClock)
	filter := screen.New(*bloomCapacity, *bloomFPRate)
	if err := filter.Warm(context.Background(), lister); err != nil {
		log.Errorf("Error warming the pre-screen: %v", err)
		return
	}
	h := &handler{
		registry:  reg,
		verifier:  auth.NewVerifier(*signatureMaxAge),
		curator:   ids.curator,
		recipient: ids.recipient,
		filter:    filter,
		lister:    lister,
	}

	router := NewRouter(h)
	router.Run(fmt.Sprintf(":%d", *serverPort))
	log.Warn("Finished the service. Should not ever being seen.")
}

type identities struct {
	curator   ethcommon.Hash
	recipient ethcommon.Hash
	reserved  []ethcommon.Hash
}

func parseIdentities() (*identities, error) {
	ids := &identities{}
	var err error
	if *curatorIdentity != "" {
		if ids.curator, err = auth.ParseIdentity(*curatorIdentity); err != nil {
			return nil, err
		}
	} else {
		log.Warn("No -curator_identity, classification updates are disabled")
	}
	if *feeRecipient != "" {
		if ids.recipient, err = auth.ParseIdentity(*feeRecipient); err != nil {
			return nil, err
		}
	}
	for _, s := range strings.Split(*reservedTargets, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := auth.ParseIdentity(s)
		if err != nil {
			return nil, err
		}
		ids.reserved = append(ids.reserved, id)
	}
	return ids, nil
}

// seedBalances credits "id=tokens" pairs, such as "0x..ab=1.5", to s.
func seedBalances(s *memstore.Store, pairs string) error {
	for _, pair := range strings.Split(pairs, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, amount, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("expected id=amount, got %q", pair)
		}
		identity, err := auth.ParseIdentity(id)
		if err != nil {
			return err
		}
		base, err := common.ToBase(amount)
		if err != nil {
			return err
		}
		if err := s.Credit(identity, base); err != nil {
			return err
		}
		log.Infof("Seeded %s with %s tokens", identity.Hex(), amount)
	}
	return nil
}

// countingSink counts events lost after their state change was committed.
type countingSink struct {
	registry.EventSink
}

func (s countingSink) Publish(message interface{}) error {
	err := s.EventSink.Publish(message)
	if err != nil {
		metrics.PublishErrorTotal.Inc()
	}
	return err
}
