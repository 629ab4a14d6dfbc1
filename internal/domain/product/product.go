// Package product defines the input model of an analysis run: the Amazon
// product listings collected for one keyword and the optional keyword-level
// market intelligence that accompanies them.  Values in this package are
// immutable once loaded; analyzers read them and never write back.
package product

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/turtacn/OceanScout/pkg/errors"
)

// NewProductWindow is the maximum listing age for a product to count as new.
const NewProductWindow = 180 * 24 * time.Hour

// UnknownBrand is the grouping label for products without a brand.
const UnknownBrand = "Unknown"

// ─────────────────────────────────────────────────────────────────────────────
// Product
// ─────────────────────────────────────────────────────────────────────────────

// Product is one Amazon listing.  Optional numeric attributes are pointers;
// nil means the value was not collected, which analyzers treat as "no signal"
// for the metric that needs it.
type Product struct {
	ASIN           string     `json:"asin"`
	Title          string     `json:"title,omitempty"`
	FeatureBullets []string   `json:"feature_bullets,omitempty"`
	Brand          string     `json:"brand,omitempty"`
	Category       string     `json:"category,omitempty"`
	Price          *float64   `json:"price,omitempty"`
	Rating         *float64   `json:"rating,omitempty"`
	ReviewsCount   int        `json:"reviews_count"`
	SalesVolume    *int       `json:"sales_volume,omitempty"`
	BSRRank        *int       `json:"bsr_rank,omitempty"`
	AvailableDate  *time.Time `json:"available_date,omitempty"`
	WeightLb       *float64   `json:"weight_lb,omitempty"`
	HasAnomaly     bool       `json:"has_anomaly,omitempty"`
}

// Validate rejects records whose numeric fields are outside their domain.
// Nothing is clamped: a bad record fails the run.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ASIN) == "" {
		return errors.New(errors.ErrCodeProductInvalidField, "asin is required")
	}
	if p.Price != nil && (*p.Price < 0 || !finite(*p.Price)) {
		return errors.Newf(errors.ErrCodeProductInvalidPrice, "price %v must be a non-negative number", *p.Price).
			WithDetail("asin=" + p.ASIN)
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5 || !finite(*p.Rating)) {
		return errors.Newf(errors.ErrCodeProductInvalidRating, "rating %v must be within [0,5]", *p.Rating).
			WithDetail("asin=" + p.ASIN)
	}
	if p.ReviewsCount < 0 {
		return errors.Newf(errors.ErrCodeProductInvalidField, "reviews_count %d must not be negative", p.ReviewsCount).
			WithDetail("asin=" + p.ASIN)
	}
	if p.SalesVolume != nil && *p.SalesVolume < 0 {
		return errors.Newf(errors.ErrCodeProductInvalidField, "sales_volume %d must not be negative", *p.SalesVolume).
			WithDetail("asin=" + p.ASIN)
	}
	if p.BSRRank != nil && *p.BSRRank <= 0 {
		return errors.Newf(errors.ErrCodeProductInvalidField, "bsr_rank %d must be positive", *p.BSRRank).
			WithDetail("asin=" + p.ASIN)
	}
	if p.WeightLb != nil && (*p.WeightLb < 0 || !finite(*p.WeightLb)) {
		return errors.Newf(errors.ErrCodeProductInvalidField, "weight_lb %v must not be negative", *p.WeightLb).
			WithDetail("asin=" + p.ASIN)
	}
	return nil
}

// ValidateAll validates every product and rejects duplicate ASINs.  It stops
// at the first fault.
func ValidateAll(products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[products[i].ASIN]; dup {
			return errors.New(errors.ErrCodeProductDuplicateASIN, "duplicate asin").
				WithDetail("asin=" + products[i].ASIN)
		}
		seen[products[i].ASIN] = struct{}{}
	}
	return nil
}

// IsNew reports whether the listing is younger than NewProductWindow at asOf.
// Products without an available date are never new.
func (p Product) IsNew(asOf time.Time) bool {
	if p.AvailableDate == nil {
		return false
	}
	return asOf.Sub(*p.AvailableDate) < NewProductWindow
}

// AgeDays returns the listing age in whole days at asOf, and false when the
// available date is unknown.
func (p Product) AgeDays(asOf time.Time) (int, bool) {
	if p.AvailableDate == nil {
		return 0, false
	}
	d := int(asOf.Sub(*p.AvailableDate).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return d, true
}

// PriceValue returns the price or 0 when absent.
func (p Product) PriceValue() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// RatingValue returns the rating or 0 when absent.
func (p Product) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// SalesValue returns the monthly sales estimate or 0 when absent.
func (p Product) SalesValue() int {
	if p.SalesVolume == nil {
		return 0
	}
	return *p.SalesVolume
}

// BrandOrUnknown returns the trimmed brand, or UnknownBrand when empty.
func (p Product) BrandOrUnknown() string {
	b := strings.TrimSpace(p.Brand)
	if b == "" {
		return UnknownBrand
	}
	return b
}

// String implements fmt.Stringer for log output.
func (p Product) String() string {
	return fmt.Sprintf("Product{asin=%s brand=%q reviews=%d}", p.ASIN, p.Brand, p.ReviewsCount)
}

// LatestAvailableDate returns the most recent AvailableDate in products, or
// the zero time when none is known.  It is the default reference date for
// age-based metrics so that results never depend on the wall clock.
func LatestAvailableDate(products []Product) time.Time {
	var latest time.Time
	for i := range products {
		if d := products[i].AvailableDate; d != nil && d.After(latest) {
			latest = *d
		}
	}
	return latest
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// TimePtr returns a pointer to v.
func TimePtr(v time.Time) *time.Time { return &v }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Value extractors shaped for stats.Collect and stats.GroupByRange.  The
// boolean is false when the attribute was not collected.

// PriceOf returns the price of p.
func PriceOf(p Product) (float64, bool) {
	if p.Price == nil {
		return 0, false
	}
	return *p.Price, true
}

// RatingOf returns the rating of p.
func RatingOf(p Product) (float64, bool) {
	if p.Rating == nil {
		return 0, false
	}
	return *p.Rating, true
}

// SalesOf returns the monthly sales estimate of p.
func SalesOf(p Product) (float64, bool) {
	if p.SalesVolume == nil {
		return 0, false
	}
	return float64(*p.SalesVolume), true
}

// ReviewsOf returns the review count of p; it is always known.
func ReviewsOf(p Product) (float64, bool) {
	return float64(p.ReviewsCount), true
}

// WithoutAnomalies returns the products whose HasAnomaly flag is unset.
func WithoutAnomalies(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !p.HasAnomaly {
			out = append(out, p)
		}
	}
	return out
}
