// Package corpus provides the authoritative corpus providers: a Postgres
// repository and a Redis-backed caching decorator over it.
package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

// Connect opens a PostgreSQL connection pool and verifies it.
func Connect(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pool.SetMaxOpenConns(10)
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Postgres answers corpus queries from the relational listings store.
type Postgres struct {
	pool   *sql.DB
	logger *zap.Logger
}

// NewPostgres creates a Postgres corpus provider.
func NewPostgres(pool *sql.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{pool: pool, logger: logger}
}

const selectListing = `
	SELECT r.id, r.name, r.rating, r.price_min, r.price_max,
	       r.address, r.image_url, r.review_count, r.created_at,
	       COALESCE(ARRAY(
	           SELECT c.name FROM restaurant_cuisines rc
	           JOIN cuisines c ON rc.cuisine_id = c.id
	           WHERE rc.restaurant_id = r.id
	           ORDER BY c.name
	       ), '{}') AS cuisines
	FROM restaurants r`

// Query returns the listings matching the filter, in stable id order. The
// filter semantics mirror the local evaluator exactly, so the canonical
// answer and the optimistic preview agree on the same corpus.
func (p *Postgres) Query(ctx context.Context, f filter.Filter) ([]domain.Restaurant, error) {
	where, args := buildWhere(f)

	q := selectListing
	if where != "" {
		q += "\n\tWHERE " + where
	}
	q += "\n\tORDER BY r.id"

	rows, err := p.pool.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()

	out := []domain.Restaurant{}
	for rows.Next() {
		r, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corpus: %w", err)
	}
	return out, nil
}

// Ping verifies the connection pool is alive.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.PingContext(ctx)
}

// ListAll returns the full unfiltered corpus for wholesale refreshes.
func (p *Postgres) ListAll(ctx context.Context) ([]domain.Restaurant, error) {
	return p.Query(ctx, filter.Default())
}

// buildWhere translates the filter into a parameterized WHERE clause.
func buildWhere(f filter.Filter) (string, []any) {
	var conditions []string
	var args []any
	idx := 1

	if q := f.NameQuery(); q != "" {
		conditions = append(conditions, fmt.Sprintf("r.name ILIKE $%d", idx))
		args = append(args, "%"+q+"%")
		idx++
	}

	if cuisines := f.Cuisines(); len(cuisines) > 0 {
		placeholders := make([]string, len(cuisines))
		for i, c := range cuisines {
			placeholders[i] = fmt.Sprintf("LOWER($%d)", idx)
			args = append(args, c)
			idx++
		}
		sub := fmt.Sprintf(
			"SELECT rc.restaurant_id FROM restaurant_cuisines rc"+
				" JOIN cuisines c ON rc.cuisine_id = c.id"+
				" WHERE LOWER(c.name) IN (%s)", strings.Join(placeholders, ","))
		if f.Combinator() == filter.CombinatorAnd && len(cuisines) > 1 {
			sub += fmt.Sprintf(
				" GROUP BY rc.restaurant_id HAVING COUNT(DISTINCT LOWER(c.name)) = %d",
				len(cuisines))
		}
		conditions = append(conditions, fmt.Sprintf("r.id IN (%s)", sub))
	}

	if r := f.MinRating(); r > 0 {
		conditions = append(conditions, fmt.Sprintf("r.rating >= $%d", idx))
		args = append(args, r)
		idx++
	}

	if b := f.Bucket(); b != filter.BucketNone {
		lo, hi, unbounded := b.Bounds()
		// Both price bounds must sit inside the bucket; listings without
		// price information never match a concrete bucket.
		cond := fmt.Sprintf(
			"r.price_min IS NOT NULL AND r.price_max IS NOT NULL"+
				" AND r.price_min >= $%d AND r.price_max >= $%d", idx, idx)
		args = append(args, lo)
		idx++
		if !unbounded {
			cond += fmt.Sprintf(" AND r.price_min <= $%d AND r.price_max <= $%d", idx, idx)
			args = append(args, hi)
			idx++
		}
		conditions = append(conditions, "("+cond+")")
	}

	return strings.Join(conditions, " AND "), args
}

func scanListing(rows *sql.Rows) (domain.Restaurant, error) {
	var r domain.Restaurant
	var priceMin, priceMax sql.NullInt64
	var cuisines pq.StringArray

	err := rows.Scan(
		&r.ID, &r.Name, &r.Rating, &priceMin, &priceMax,
		&r.Address, &r.ImageURL, &r.ReviewCount, &r.CreatedAt, &cuisines,
	)
	if err != nil {
		return domain.Restaurant{}, err
	}

	if priceMin.Valid {
		v := int(priceMin.Int64)
		r.PriceMin = &v
	}
	if priceMax.Valid {
		v := int(priceMax.Int64)
		r.PriceMax = &v
	}
	r.Cuisines = []string(cuisines)
	return r, nil
}

// Reviews returns a restaurant's reviews, newest first by id.
func (p *Postgres) Reviews(ctx context.Context, restaurantID int64) ([]domain.Review, error) {
	const q = `
		SELECT v.id, v.restaurant_id, u.username, v.rating, v.comment, v.created_at
		FROM reviews v JOIN users u ON v.user_id = u.id
		WHERE v.restaurant_id = $1
		ORDER BY v.id DESC`

	return p.queryReviews(ctx, q, restaurantID)
}

// AllReviews returns every review for the admin review table.
func (p *Postgres) AllReviews(ctx context.Context) ([]domain.Review, error) {
	const q = `
		SELECT v.id, v.restaurant_id, u.username, v.rating, v.comment, v.created_at
		FROM reviews v JOIN users u ON v.user_id = u.id
		ORDER BY v.id DESC`

	return p.queryReviews(ctx, q)
}

func (p *Postgres) queryReviews(ctx context.Context, q string, args ...any) ([]domain.Review, error) {
	rows, err := p.pool.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		var v domain.Review
		if err := rows.Scan(&v.ID, &v.RestaurantID, &v.Username, &v.Rating, &v.Comment, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

// Users returns every account for the admin user table.
func (p *Postgres) Users(ctx context.Context) ([]domain.User, error) {
	const q = `
		SELECT id, username, email, role, created_at
		FROM users
		ORDER BY id`

	rows, err := p.pool.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}
