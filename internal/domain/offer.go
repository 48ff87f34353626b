package domain

import "time"

// CouponType distinguishes how a coupon magnitude is applied.
type CouponType string

const (
	CouponPercentage  CouponType = "percentage"
	CouponFixedAmount CouponType = "fixed_amount"
)

// Coupon is an optional code attached to an offer.
type Coupon struct {
	Code     string     `json:"code"`
	Type     CouponType `json:"type"`
	Value    int        `json:"value"`
	MinOrder int        `json:"min_order,omitempty"`
}

// Offer is one externally supplied deal record. Offers are immutable once
// loaded; the catalog hands out copies of its snapshot slice.
//
// OriginalPrice, Discount, Cashback, and Rating are zero when the feed does
// not carry them. Invariant: Price <= OriginalPrice when OriginalPrice > 0.
type Offer struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Brand         string    `json:"brand,omitempty"`
	Category      string    `json:"category"`
	Store         string    `json:"store"`
	Price         int       `json:"price"`
	OriginalPrice int       `json:"original_price,omitempty"`
	Discount      int       `json:"discount,omitempty"`
	Cashback      int       `json:"cashback,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
	Coupon        *Coupon   `json:"coupon,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	VerifiedAt    time.Time `json:"verified_at"`
	Link          string    `json:"link"`
}

// Categories in the closed catalog taxonomy.
const (
	CategoryElectronics = "electronics"
	CategoryFashion     = "fashion"
	CategoryGrocery     = "grocery"
	CategoryHome        = "home"
	CategoryBeauty      = "beauty"
	CategoryTravel      = "travel"
)

// Categories lists every known category identifier.
var Categories = []string{
	CategoryElectronics,
	CategoryFashion,
	CategoryGrocery,
	CategoryHome,
	CategoryBeauty,
	CategoryTravel,
}
