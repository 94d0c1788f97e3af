package pricing

import (
	"time"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// Quote carries every derived pricing value for a gig at a point in time.
// Nothing here is ever persisted; it is recomputed on each read.
type Quote struct {
	ElapsedSeconds    int64 `json:"elapsed_seconds"`
	PriceBumps        int   `json:"price_bumps"`
	CurrentPriceCents int   `json:"current_price_cents"`
	AgeBonusStars     int   `json:"age_bonus_stars"`
	RepostBonusStars  int   `json:"repost_bonus_stars"`
	TotalStarsReward  int   `json:"total_stars_reward"`
}

// BuildQuote computes all derived values for the gig at the given instant.
func BuildQuote(gig models.Gig, now time.Time) Quote {
	elapsed := ElapsedSeconds(gig, now)
	bumps := PriceBumps(gig, elapsed)
	age := AgeBonusStars(gig, elapsed)
	repost := RepostBonusStars(gig)
	return Quote{
		ElapsedSeconds:    elapsed,
		PriceBumps:        bumps,
		CurrentPriceCents: priceWithBumps(gig, bumps),
		AgeBonusStars:     age,
		RepostBonusStars:  repost,
		TotalStarsReward:  gig.BaseStars + age + repost,
	}
}

// CurrentPriceCents is the bump-adjusted price at the given instant.
func CurrentPriceCents(gig models.Gig, now time.Time) int {
	return priceWithBumps(gig, PriceBumps(gig, ElapsedSeconds(gig, now)))
}

// TotalStarsReward is the stars total at the given instant.
func TotalStarsReward(gig models.Gig, now time.Time) int {
	elapsed := ElapsedSeconds(gig, now)
	return gig.BaseStars + AgeBonusStars(gig, elapsed) + RepostBonusStars(gig)
}

// ElapsedSeconds returns the age of the bump window in whole seconds.
// The clock freezes at UpdatedAt once the gig leaves DRAFT/OPEN, and
// EndsAt caps the window for gigs that outlive their schedule.
func ElapsedSeconds(gig models.Gig, now time.Time) int64 {
	end := now
	if gig.Status != enums.GigStatusDraft && gig.Status != enums.GigStatusOpen {
		end = gig.UpdatedAt
	}
	if gig.EndsAt != nil && gig.EndsAt.Before(end) {
		end = *gig.EndsAt
	}
	elapsed := int64(end.Sub(gig.CreatedAt) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// PriceBumps is the number of whole bump intervals in the elapsed window,
// clamped by the optional MaxBumps cap.
func PriceBumps(gig models.Gig, elapsedSeconds int64) int {
	if gig.BumpEverySeconds <= 0 {
		return 0
	}
	bumps := int(elapsedSeconds / int64(gig.BumpEverySeconds))
	return capped(bumps, gig.MaxBumps)
}

// AgeBonusStars is the star bonus accrued from the gig sitting open.
func AgeBonusStars(gig models.Gig, elapsedSeconds int64) int {
	if gig.StarsBumpEverySeconds <= 0 {
		return 0
	}
	steps := int(elapsedSeconds / int64(gig.StarsBumpEverySeconds))
	return capped(steps*gig.StarsBumpAmount, gig.MaxAgeBonusStars)
}

// RepostBonusStars is the flat star bonus earned per repost.
func RepostBonusStars(gig models.Gig) int {
	if gig.RepostCount <= 0 || gig.RepostBonusPerRepost <= 0 {
		return 0
	}
	return gig.RepostCount * gig.RepostBonusPerRepost
}

func priceWithBumps(gig models.Gig, bumps int) int {
	return capped(gig.BasePriceCents+bumps*gig.BumpCents, gig.MaxPriceCents)
}

// capped saturates value at the optional limit; a nil limit means unbounded.
func capped(value int, limit *int) int {
	if limit != nil && value > *limit {
		return *limit
	}
	return value
}
