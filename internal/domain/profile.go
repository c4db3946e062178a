package domain

import (
	"math"
	"time"
)

type StatusCategory string

const (
	StatusMan      StatusCategory = "man"
	StatusWoman    StatusCategory = "woman"
	StatusCoupleMW StatusCategory = "couple_mw"
	StatusCoupleMM StatusCategory = "couple_mm"
	StatusCoupleWW StatusCategory = "couple_ww"
)

var AllStatusCategories = []StatusCategory{
	StatusMan, StatusWoman, StatusCoupleMW, StatusCoupleMM, StatusCoupleWW,
}

func (s StatusCategory) Valid() bool {
	switch s {
	case StatusMan, StatusWoman, StatusCoupleMW, StatusCoupleMM, StatusCoupleWW:
		return true
	}
	return false
}

func (s StatusCategory) IsCouple() bool {
	return s == StatusCoupleMW || s == StatusCoupleMM || s == StatusCoupleWW
}

// Genders lists the genders of the people a status stands for.
func (s StatusCategory) Genders() []Gender {
	switch s {
	case StatusMan:
		return []Gender{GenderMale}
	case StatusWoman:
		return []Gender{GenderFemale}
	case StatusCoupleMW:
		return []Gender{GenderMale, GenderFemale}
	case StatusCoupleMM:
		return []Gender{GenderMale, GenderMale}
	case StatusCoupleWW:
		return []Gender{GenderFemale, GenderFemale}
	}
	return nil
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type AgeBucket string

const (
	AgeBucketPeers    AgeBucket = "peers"
	AgeBucketWithin5  AgeBucket = "within_5"
	AgeBucketWithin10 AgeBucket = "within_10"
	AgeBucketAny      AgeBucket = "any"
)

// HalfWidth returns the accepted age difference in years. ok is false for
// AgeBucketAny and unknown buckets, which accept every age.
func (b AgeBucket) HalfWidth() (years float64, ok bool) {
	switch b {
	case AgeBucketPeers:
		return 2, true
	case AgeBucketWithin5:
		return 5, true
	case AgeBucketWithin10:
		return 10, true
	}
	return 0, false
}

// Attitude is a lifestyle stance (smoking, alcohol).
type Attitude string

const (
	AttitudeNoPreference Attitude = "no_preference"
	AttitudeNegative     Attitude = "negative"
	AttitudeNeutral      Attitude = "neutral"
	AttitudePositive     Attitude = "positive"
)

// IsNoPreference treats an unset attitude the same as an explicit "no preference".
func (a Attitude) IsNoPreference() bool {
	return a == "" || a == AttitudeNoPreference
}

// Member is one person behind a profile. Couples carry two.
type Member struct {
	Gender    Gender     `json:"gender"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	HeightCm  *int       `json:"height_cm,omitempty"`
	WeightKg  *int       `json:"weight_kg,omitempty"`
	Smoking   Attitude   `json:"smoking,omitempty"`
	Alcohol   Attitude   `json:"alcohol,omitempty"`
}

// AgeAt returns the member's age in whole years. ok is false when the birth
// date is missing or lies in the future.
func (m Member) AgeAt(now time.Time) (int, bool) {
	if m.BirthDate == nil || m.BirthDate.IsZero() || m.BirthDate.After(now) {
		return 0, false
	}
	b := *m.BirthDate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age, true
}

type Profile struct {
	ID             int64            `json:"id"`
	Status         StatusCategory   `json:"status"`
	SeekStatuses   []StatusCategory `json:"seek_statuses"`
	SeekAgeBuckets []AgeBucket      `json:"seek_age_buckets"`
	Primary        Member           `json:"primary"`
	Partner        *Member          `json:"partner,omitempty"`
	Lat            *float64         `json:"lat,omitempty"`
	Lon            *float64         `json:"lon,omitempty"`
	Country        string           `json:"country,omitempty"`
	City           string           `json:"city,omitempty"`
	LocationPrefs  []string         `json:"location_prefs"`
	VIPTier        int              `json:"vip_tier"`
	IsActive       bool             `json:"-"`
	IsBanned       bool             `json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Members returns the primary member followed by the partner, if any.
func (p *Profile) Members() []Member {
	if p.Partner == nil {
		return []Member{p.Primary}
	}
	return []Member{p.Primary, *p.Partner}
}

func (p *Profile) Seeks(s StatusCategory) bool {
	for _, want := range p.SeekStatuses {
		if want == s {
			return true
		}
	}
	return false
}

// SeeksGender reports whether any sought status includes a person of gender g.
func (p *Profile) SeeksGender(g Gender) bool {
	for _, s := range p.SeekStatuses {
		for _, sg := range s.Genders() {
			if sg == g {
				return true
			}
		}
	}
	return false
}

func (p *Profile) IsVIP() bool {
	return p.VIPTier > 0
}

func (p *Profile) IsMatchable() bool {
	return p.IsActive && !p.IsBanned
}

// Coordinates returns the profile location when both values are present and
// within range.
func (p *Profile) Coordinates() (lat, lon float64, ok bool) {
	if p.Lat == nil || p.Lon == nil {
		return 0, 0, false
	}
	lat, lon = *p.Lat, *p.Lon
	if !ValidCoordinates(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
