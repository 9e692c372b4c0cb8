// Dev/test client for dev/test/troubleshooting. It signs requests the way a
// wallet would and prints the service responses.
package main

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"strings"
	"time"

	"drainer-registry/api"
	"drainer-registry/auth"
	"drainer-registry/registry"

	"github.com/apex/log"
	"github.com/ethereum/go-ethereum/crypto"
)

const contentType = "application/json"

var (
	serviceUrl = flag.String("service_url", "http://127.0.0.1:8080", "Registry service URL.")
	privateKey = flag.String("key", "", "Hex secp256k1 private key; a fresh key is generated when empty.")
	target     = flag.String("target", "", "Hex identity of the drainer to report.")
	recipient  = flag.String("fee_recipient", "", "Hex identity the fee is paid to.")
	amount     = flag.Uint64("amount", 0, "Claimed stolen amount in base units; omitted when 0.")
	category   = flag.Int("category", -1, "When >= 0, send a classification update with this category instead of a report.")
	summary    = flag.String("summary", "", "Classification summary.")
	domains    = flag.String("domains", "", "Comma separated classification domains.")
	confidence = flag.Int("confidence", 50, "Classification confidence.")
)

func loadKey() *ecdsa.PrivateKey {
	if *privateKey == "" {
		key, err := crypto.GenerateKey()
		if err != nil {
			log.Fatalf("Failed to generate a key: %v", err)
		}
		return key
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(*privateKey, "0x"))
	if err != nil {
		log.Fatalf("Bad -key: %v", err)
	}
	return key
}

func post(endpoint string, args interface{}) {
	buf, err := json.Marshal(args)
	if err != nil {
		log.Errorf("Failed to encode the request: %v", err)
		return
	}
	resp, err := http.Post(*serviceUrl+endpoint, contentType, bytes.NewReader(buf))
	if err != nil {
		log.Errorf("Failed to call the server with %v", err)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	log.Infof("Done, %s: %v", resp.Status, string(body))
}

func doReport(key *ecdsa.PrivateKey) {
	log.Info("doReport()")
	t, err := auth.ParseIdentity(*target)
	if err != nil {
		log.Fatalf("Bad -target: %v", err)
	}
	r, err := auth.ParseIdentity(*recipient)
	if err != nil {
		log.Fatalf("Bad -fee_recipient: %v", err)
	}
	var claimed *uint64
	if *amount > 0 {
		claimed = amount
	}
	ts := time.Now().Unix()
	sig, err := auth.Sign(auth.ReportDigest(t, r, claimed, ts), key)
	if err != nil {
		log.Fatalf("Failed to sign: %v", err)
	}
	post(api.ReportEndpoint, api.ReportArgs{
		Version:      api.Version,
		Target:       t.Hex(),
		FeeRecipient: r.Hex(),
		Amount:       claimed,
		Timestamp:    ts,
		Signature:    sig,
	})
}

func doClassify(key *ecdsa.PrivateKey) {
	log.Info("doClassify()")
	t, err := auth.ParseIdentity(*target)
	if err != nil {
		log.Fatalf("Bad -target: %v", err)
	}
	c := registry.Classification{
		CategoryCode: *category,
		Summary:      *summary,
		Confidence:   *confidence,
	}
	if *domains != "" {
		c.Domains = strings.Split(*domains, ",")
	}
	ts := time.Now().Unix()
	sig, err := auth.Sign(auth.ClassificationDigest(t, c, ts), key)
	if err != nil {
		log.Fatalf("Failed to sign: %v", err)
	}
	post(api.ClassificationEndpoint, api.ClassificationArgs{
		Version:    api.Version,
		Target:     t.Hex(),
		Category:   c.CategoryCode,
		Summary:    c.Summary,
		Domains:    c.Domains,
		Confidence: c.Confidence,
		Timestamp:  ts,
		Signature:  sig,
	})
}

func main() {
	flag.Parse()

	key := loadKey()
	log.Infof("Signing as %s", auth.Identity(&key.PublicKey).Hex())
	if *category >= 0 {
		doClassify(key)
		return
	}
	doReport(key)
}
