package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/banrisk/fxvar/internal/series"
)

// Metadata is the provenance sidecar written next to each raw snapshot.
type Metadata struct {
	SourceName     string    `json:"source_name"`
	SourceEndpoint string    `json:"source_endpoint"`
	RetrievedAtUTC time.Time `json:"retrieved_at_utc"`
	RequestedStart string    `json:"requested_start_date"`
	RequestedEnd   string    `json:"requested_end_date"`
	RowCount       int       `json:"row_count"`
	MinDate        string    `json:"min_date"`
	MaxDate        string    `json:"max_date"`
	Schema         []string  `json:"schema"`
	SHA256         string    `json:"sha256"`
}

// WriteMetadata hashes the snapshot file and writes the sidecar at
// csvPath + ".metadata.json".
func WriteMetadata(csvPath, endpoint string, rates series.RateSeries, requestedStart, requestedEnd time.Time) error {
	if len(rates) == 0 {
		return fmt.Errorf("snapshot metadata: empty rate series")
	}

	digest, err := fileSHA256(csvPath)
	if err != nil {
		return err
	}

	meta := Metadata{
		SourceName:     "Banco de Guatemala (Banguat) TipoCambio SOAP",
		SourceEndpoint: endpoint,
		RetrievedAtUTC: time.Now().UTC().Truncate(time.Second),
		RequestedStart: requestedStart.Format("2006-01-02"),
		RequestedEnd:   requestedEnd.Format("2006-01-02"),
		RowCount:       len(rates),
		MinDate:        rates[0].Date.Format("2006-01-02"),
		MaxDate:        rates[len(rates)-1].Date.Format("2006-01-02"),
		Schema:         header,
		SHA256:         digest,
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot metadata: marshal: %w", err)
	}
	raw = append(raw, '\n')

	sidecar := csvPath + ".metadata.json"
	if err := os.WriteFile(sidecar, raw, 0644); err != nil {
		return fmt.Errorf("snapshot metadata: write %s: %w", sidecar, err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("snapshot metadata: open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("snapshot metadata: hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
