package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// Money renders a decimal as a JSON number with two fraction digits.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

// =============================================================================
// Products
// =============================================================================

type productView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	Form          string    `json:"form,omitempty"`
	Price         Money     `json:"price"`
	Stock         int       `json:"stock"`
	Tags          []string  `json:"tags"`
	StoreID       string    `json:"storeId,omitempty"`
	RxRequired    bool      `json:"rxRequired"`
	Description   string    `json:"description,omitempty"`
	RatingCount   int       `json:"ratingCount"`
	RatingAverage float64   `json:"ratingAverage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toProductView(p domain.Product) productView {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return productView{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Brand:         p.Brand,
		Form:          p.Form,
		Price:         Money(p.Price),
		Stock:         p.Stock,
		Tags:          tags,
		StoreID:       p.StoreID,
		RxRequired:    p.RxRequired,
		Description:   p.Description,
		RatingCount:   p.RatingCount,
		RatingAverage: p.RatingAverage,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type productSummaryView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Brand string `json:"brand,omitempty"`
	Form  string `json:"form,omitempty"`
}

// =============================================================================
// Cart
// =============================================================================

type cartLineView struct {
	ProductID  string              `json:"productId"`
	Qty        int                 `json:"qty"`
	PriceAtAdd Money               `json:"priceAtAdd"`
	Product    *productSummaryView `json:"product"`
}

type cartView struct {
	Items  []cartLineView `json:"items"`
	Totals struct {
		ItemCount int   `json:"itemCount"`
		Subtotal  Money `json:"subtotal"`
	} `json:"totals"`
}

func toCartView(c *domain.CartView) cartView {
	var v cartView
	v.Items = make([]cartLineView, len(c.Items))
	for i, line := range c.Items {
		v.Items[i] = cartLineView{
			ProductID:  line.ProductID,
			Qty:        line.Qty,
			PriceAtAdd: Money(line.PriceAtAdd),
		}
		if line.Product != nil {
			v.Items[i].Product = &productSummaryView{
				ID:    line.Product.ID,
				Title: line.Product.Title,
				Brand: line.Product.Brand,
				Form:  line.Product.Form,
			}
		}
	}
	v.Totals.ItemCount = c.Totals.ItemCount
	v.Totals.Subtotal = Money(c.Totals.Subtotal)
	return v
}

// =============================================================================
// Orders
// =============================================================================

type orderItemView struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Qty       int    `json:"qty"`
	Price     Money  `json:"price"`
}

type orderView struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Items      []orderItemView `json:"items"`
	Total      Money           `json:"total"`
	Status     string          `json:"status"`
	PaymentRef string          `json:"paymentRef,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func toOrderView(o domain.Order) orderView {
	items := make([]orderItemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemView{ProductID: it.ProductID, Title: it.Title, Qty: it.Qty, Price: Money(it.Price)}
	}
	return orderView{
		ID:         o.ID,
		UserID:     o.UserID,
		Items:      items,
		Total:      Money(o.Total),
		Status:     string(o.Status),
		PaymentRef: o.PaymentRef,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

type checkoutView struct {
	OrderID    string `json:"orderId"`
	PaymentRef string `json:"paymentRef"`
	Total      Money  `json:"total"`
}

// =============================================================================
// Reviews
// =============================================================================

type reviewView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewView(r domain.Review) reviewView {
	return reviewView{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

type reviewStatsView struct {
	Count        int            `json:"count"`
	AvgRating    float64        `json:"avgRating"`
	Distribution map[string]int `json:"distribution"`
}

func toReviewStatsView(s domain.ReviewStats) reviewStatsView {
	dist := make(map[string]int, 5)
	for star := 1; star <= 5; star++ {
		dist[string(rune('0'+star))] = s.Distribution[star]
	}
	return reviewStatsView{Count: s.Count, AvgRating: s.AvgRating, Distribution: dist}
}

// =============================================================================
// Stores
// =============================================================================

type locationView struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type storeView struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Address        string       `json:"address"`
	Phone          string       `json:"phone,omitempty"`
	Rating         float64      `json:"rating"`
	IsActive       bool         `json:"isActive"`
	Location       locationView `json:"location"`
	DistanceMeters *float64     `json:"distanceMeters,omitempty"`
	DistanceKm     *float64     `json:"distanceKm,omitempty"`
	Distance       *float64     `json:"distance,omitempty"`
	Unit           string       `json:"unit,omitempty"`
}

func toStoreView(p domain.Pharmacy) storeView {
	return storeView{
		ID:       p.ID,
		Name:     p.Name,
		Address:  p.Address,
		Phone:    p.Phone,
		Rating:   p.Rating,
		IsActive: p.IsActive,
		Location: locationView{Type: "Point", Coordinates: [2]float64{p.Location.Lng, p.Location.Lat}},
	}
}

// =============================================================================
// Users & auth
// =============================================================================

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserView(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type sessionView struct {
	User         userView `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int      `json:"expiresIn"`
}

func toSessionView(s *domain.Session) sessionView {
	return sessionView{
		User:         toUserView(*s.User),
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.Tokens.ExpiresIn.Seconds()),
	}
}
