package domain

import "time"

// Restaurant is a searchable listing. Instances are immutable from the
// engine's point of view: the corpus is replaced wholesale on refresh,
// never patched field by field.
type Restaurant struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Cuisines []string `json:"cuisines"`
	// Rating is the average star rating, 0-5 with one decimal of precision.
	// Zero means unrated.
	Rating float64 `json:"rating"`
	// PriceMin/PriceMax bound the cost per person in baht. Nil means the
	// listing carries no price information.
	PriceMin *int `json:"price_min,omitempty"`
	PriceMax *int `json:"price_max,omitempty"`

	// Display-only fields, irrelevant to filtering.
	Address     string    `json:"address,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// Review is a user review of a restaurant, indexed by the admin list views
// and the per-restaurant review list.
type Review struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Username     string    `json:"username"`
	Rating       float64   `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// User is an account row shown in the admin user table.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
