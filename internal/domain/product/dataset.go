package product

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/turtacn/OceanScout/pkg/errors"
)

// Dataset is the complete input of one analysis run.
type Dataset struct {
	Keyword  string             `json:"keyword"`
	Products []Product          `json:"products"`
	Market   *KeywordMarketData `json:"market,omitempty"`
}

// Validate checks the keyword, every product and the market data.
func (d Dataset) Validate() error {
	if strings.TrimSpace(d.Keyword) == "" {
		return errors.New(errors.ErrCodeDatasetKeywordMissing, "dataset keyword is required")
	}
	if err := ValidateAll(d.Products); err != nil {
		return err
	}
	return d.Market.Validate()
}

// Fingerprint returns a stable sha256 over the dataset content.  Products are
// sorted by ASIN first so that input order does not change the result.  The
// keyword is taken as is, so it matches the keyword stored with the report.
func (d Dataset) Fingerprint() string {
	sorted := make([]Product, len(d.Products))
	copy(sorted, d.Products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ASIN < sorted[j].ASIN })

	canonical := Dataset{
		Keyword:  d.Keyword,
		Products: sorted,
		Market:   d.Market,
	}
	// json.Marshal of these types cannot fail.
	raw, _ := json.Marshal(canonical)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
