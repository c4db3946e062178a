package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const profileColumns = `
	p.id, p.status, p.seek_statuses, p.seek_age_buckets,
	p.primary_gender, p.primary_birth_date, p.primary_height_cm, p.primary_weight_kg,
	p.primary_smoking, p.primary_alcohol,
	p.partner_gender, p.partner_birth_date, p.partner_height_cm, p.partner_weight_kg,
	p.partner_smoking, p.partner_alcohol,
	p.location_lat, p.location_lon, p.country, p.city, p.location_prefs,
	p.vip_tier, p.is_active, p.is_banned, p.created_at`

// profileRow is the storage shape of a profile. Paired attributes live in
// primary_* and partner_* columns and multi-selects in text[] columns.
type profileRow struct {
	ID               int64           `db:"id"`
	Status           string          `db:"status"`
	SeekStatuses     pq.StringArray  `db:"seek_statuses"`
	SeekAgeBuckets   pq.StringArray  `db:"seek_age_buckets"`
	PrimaryGender    string          `db:"primary_gender"`
	PrimaryBirthDate sql.NullTime    `db:"primary_birth_date"`
	PrimaryHeightCm  sql.NullInt32   `db:"primary_height_cm"`
	PrimaryWeightKg  sql.NullInt32   `db:"primary_weight_kg"`
	PrimarySmoking   sql.NullString  `db:"primary_smoking"`
	PrimaryAlcohol   sql.NullString  `db:"primary_alcohol"`
	PartnerGender    sql.NullString  `db:"partner_gender"`
	PartnerBirthDate sql.NullTime    `db:"partner_birth_date"`
	PartnerHeightCm  sql.NullInt32   `db:"partner_height_cm"`
	PartnerWeightKg  sql.NullInt32   `db:"partner_weight_kg"`
	PartnerSmoking   sql.NullString  `db:"partner_smoking"`
	PartnerAlcohol   sql.NullString  `db:"partner_alcohol"`
	LocationLat      sql.NullFloat64 `db:"location_lat"`
	LocationLon      sql.NullFloat64 `db:"location_lon"`
	Country          sql.NullString  `db:"country"`
	City             sql.NullString  `db:"city"`
	LocationPrefs    pq.StringArray  `db:"location_prefs"`
	VIPTier          int             `db:"vip_tier"`
	IsActive         bool            `db:"is_active"`
	IsBanned         bool            `db:"is_banned"`
	CreatedAt        time.Time       `db:"created_at"`
}

func (r *profileRow) toDomain() *domain.Profile {
	p := &domain.Profile{
		ID:            r.ID,
		Status:        domain.StatusCategory(r.Status),
		Primary:       member(r.PrimaryGender, r.PrimaryBirthDate, r.PrimaryHeightCm, r.PrimaryWeightKg, r.PrimarySmoking, r.PrimaryAlcohol),
		Country:       r.Country.String,
		City:          r.City.String,
		LocationPrefs: []string(r.LocationPrefs),
		VIPTier:       r.VIPTier,
		IsActive:      r.IsActive,
		IsBanned:      r.IsBanned,
		CreatedAt:     r.CreatedAt,
	}
	for _, s := range r.SeekStatuses {
		p.SeekStatuses = append(p.SeekStatuses, domain.StatusCategory(s))
	}
	for _, b := range r.SeekAgeBuckets {
		p.SeekAgeBuckets = append(p.SeekAgeBuckets, domain.AgeBucket(b))
	}
	if r.PartnerGender.Valid {
		partner := member(r.PartnerGender.String, r.PartnerBirthDate, r.PartnerHeightCm, r.PartnerWeightKg, r.PartnerSmoking, r.PartnerAlcohol)
		p.Partner = &partner
	}
	if r.LocationLat.Valid && r.LocationLon.Valid {
		lat, lon := r.LocationLat.Float64, r.LocationLon.Float64
		p.Lat, p.Lon = &lat, &lon
	}
	return p
}

func member(gender string, birth sql.NullTime, height, weight sql.NullInt32, smoking, alcohol sql.NullString) domain.Member {
	m := domain.Member{
		Gender:  domain.Gender(gender),
		Smoking: domain.Attitude(smoking.String),
		Alcohol: domain.Attitude(alcohol.String),
	}
	if birth.Valid {
		d := birth.Time
		m.BirthDate = &d
	}
	if height.Valid {
		h := int(height.Int32)
		m.HeightCm = &h
	}
	if weight.Valid {
		w := int(weight.Int32)
		m.WeightKg = &w
	}
	return m
}

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var (
	_ repository.ProfileStore        = (*ProfileRepository)(nil)
	_ repository.CandidateRepository = (*ProfileRepository)(nil)
)

func (r *ProfileRepository) GetProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles p WHERE p.id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, classify(err)
	}
	return row.toDomain(), nil
}

func (r *ProfileRepository) ProfileExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (r *ProfileRepository) FetchCandidates(
	ctx context.Context,
	viewerID int64,
	filter domain.CandidateFilter,
	excludeIDs []int64,
	limit, offset int,
) ([]*domain.Profile, error) {
	decided := `SELECT 1 FROM swipe_decisions d WHERE d.from_profile_id = $1 AND d.to_profile_id = p.id`
	if filter.IncludeDisliked {
		decided += ` AND d.kind <> 'dislike'`
	}

	query := `SELECT ` + profileColumns + `
		FROM profiles p
		WHERE p.id <> $1
		  AND p.is_active AND NOT p.is_banned
		  AND NOT EXISTS (` + decided + `)`
	args := []interface{}{viewerID}
	argCount := 2

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(" AND p.status = ANY($%d)", argCount)
		args = append(args, pq.Array(statuses))
		argCount++
	}

	if filter.Country != "" {
		query += fmt.Sprintf(" AND p.country = $%d", argCount)
		args = append(args, filter.Country)
		argCount++
	}

	if filter.City != "" {
		query += fmt.Sprintf(" AND p.city = $%d", argCount)
		args = append(args, filter.City)
		argCount++
	}

	if len(excludeIDs) > 0 {
		query += fmt.Sprintf(" AND NOT (p.id = ANY($%d))", argCount)
		args = append(args, pq.Array(excludeIDs))
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY p.id LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err)
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toDomain())
	}
	return profiles, nil
}
