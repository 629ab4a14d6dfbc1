package blueocean

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Weak listing reasons.
const (
	WeakLowQuality     = "low_listing_quality"
	WeakLowRating      = "low_rating"
	WeakLowReviewRatio = "low_review_conversion"
	WeakShortTitle     = "short_title"
)

// Opening signals derived from weak listings among the best sellers.
const (
	SignalStrong   = "strong"
	SignalModerate = "moderate"
	SignalWeak     = "weak"
)

const (
	shortTitleRunes    = 50
	minReviewToSales   = 0.01
	weakRatingCeiling  = 4.0
	maxReportedListing = 20
)

// ListingQualityScore rates how well a listing is built, 25 points each for
// title, feature bullets, rating with reviews and price positioning.
func ListingQualityScore(p product.Product) float64 {
	var score float64

	if n := utf8.RuneCountInString(strings.TrimSpace(p.Title)); n > 0 {
		switch {
		case n >= 80 && n <= 200:
			score += 25
		case n >= 50 && n < 80:
			score += 20
		case n > 200:
			score += 15
		default:
			score += 10
		}
	}

	switch n := len(p.FeatureBullets); {
	case n >= 5:
		score += 25
	case n >= 3:
		score += 18
	case n >= 1:
		score += 10
	}

	if p.Rating != nil {
		switch r := *p.Rating; {
		case r >= 4.5:
			score += 15
		case r >= 4.0:
			score += 12
		case r >= 3.5:
			score += 8
		default:
			score += 4
		}
	}
	switch r := p.ReviewsCount; {
	case r >= 100:
		score += 10
	case r >= 50:
		score += 8
	case r >= 20:
		score += 5
	case r > 0:
		score += 2
	}

	if p.Price != nil {
		switch pr := *p.Price; {
		case pr >= 15 && pr <= 50:
			score += 25
		case (pr >= 10 && pr < 15) || (pr > 50 && pr <= 80):
			score += 20
		case pr < 10:
			score += 12
		default:
			score += 15
		}
	}
	return score
}

// WeakListing is a listing with an exploitable weakness.
type WeakListing struct {
	ASIN         string   `json:"asin"`
	QualityScore float64  `json:"quality_score"`
	Reasons      []string `json:"reasons"`
}

// WeakListingAnalysis summarises weak listings in the market, with emphasis
// on the ten best sellers where a weak incumbent is easiest to displace.
type WeakListingAnalysis struct {
	WeakCount      int           `json:"weak_count"`
	WeakRate       float64       `json:"weak_rate"`
	Top10WeakCount int           `json:"top10_weak_count"`
	MeetsThreshold bool          `json:"meets_threshold"`
	Signal         string        `json:"signal"`
	Listings       []WeakListing `json:"listings"`
}

// WeakListings finds the weak listings among products.  The best sellers are
// ranked by sales descending, ties by ASIN.
func (a *Analyzer) WeakListings(products []product.Product) WeakListingAnalysis {
	res := WeakListingAnalysis{Signal: SignalWeak, Listings: []WeakListing{}}
	if len(products) == 0 {
		return res
	}

	weak := make(map[string]bool, len(products))
	for _, p := range products {
		wl, ok := a.weakness(p)
		if !ok {
			continue
		}
		weak[p.ASIN] = true
		res.WeakCount++
		res.Listings = append(res.Listings, wl)
	}
	sort.Slice(res.Listings, func(i, j int) bool {
		if res.Listings[i].QualityScore != res.Listings[j].QualityScore {
			return res.Listings[i].QualityScore < res.Listings[j].QualityScore
		}
		return res.Listings[i].ASIN < res.Listings[j].ASIN
	})
	if len(res.Listings) > maxReportedListing {
		res.Listings = res.Listings[:maxReportedListing]
	}
	res.WeakRate = stats.Round(stats.SafePercentage(float64(res.WeakCount), float64(len(products))), 2)

	top := append([]product.Product(nil), products...)
	sort.Slice(top, func(i, j int) bool {
		si, sj := top[i].SalesValue(), top[j].SalesValue()
		if si != sj {
			return si > sj
		}
		return top[i].ASIN < top[j].ASIN
	})
	if len(top) > 10 {
		top = top[:10]
	}
	for _, p := range top {
		if weak[p.ASIN] {
			res.Top10WeakCount++
		}
	}
	res.MeetsThreshold = res.Top10WeakCount >= a.cfg.MinWeakListings
	switch {
	case res.Top10WeakCount >= 4:
		res.Signal = SignalStrong
	case res.Top10WeakCount >= 2:
		res.Signal = SignalModerate
	}
	return res
}

func (a *Analyzer) weakness(p product.Product) (WeakListing, bool) {
	wl := WeakListing{ASIN: p.ASIN, QualityScore: ListingQualityScore(p)}
	if wl.QualityScore < a.cfg.WeakListingThreshold {
		wl.Reasons = append(wl.Reasons, WeakLowQuality)
	}
	if p.Rating != nil && *p.Rating < weakRatingCeiling {
		wl.Reasons = append(wl.Reasons, WeakLowRating)
	}
	if s := p.SalesValue(); s > 0 && p.ReviewsCount > 0 && float64(p.ReviewsCount)/float64(s) < minReviewToSales {
		wl.Reasons = append(wl.Reasons, WeakLowReviewRatio)
	}
	if t := strings.TrimSpace(p.Title); t != "" && utf8.RuneCountInString(t) < shortTitleRunes {
		wl.Reasons = append(wl.Reasons, WeakShortTitle)
	}
	return wl, len(wl.Reasons) > 0
}
