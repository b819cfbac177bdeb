package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// Document shapes. References to other documents are stored as hex
// strings so a dangling reference still decodes.

type productDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Title         string               `bson:"title"`
	Slug          string               `bson:"slug"`
	Brand         string               `bson:"brand"`
	Form          string               `bson:"form"`
	Price         primitive.Decimal128 `bson:"price"`
	Stock         int                  `bson:"stock"`
	Tags          []string             `bson:"tags"`
	StoreID       string               `bson:"storeId,omitempty"`
	RxRequired    bool                 `bson:"rxRequired"`
	Description   string               `bson:"description"`
	RatingCount   int                  `bson:"ratingCount"`
	RatingAverage float64              `bson:"ratingAverage"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

func (d *productDoc) toDomain() (*domain.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Slug:          d.Slug,
		Brand:         d.Brand,
		Form:          d.Form,
		Price:         price,
		Stock:         d.Stock,
		Tags:          d.Tags,
		StoreID:       d.StoreID,
		RxRequired:    d.RxRequired,
		Description:   d.Description,
		RatingCount:   d.RatingCount,
		RatingAverage: d.RatingAverage,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

type cartLineDoc struct {
	ProductID  string               `bson:"productId"`
	Qty        int                  `bson:"qty"`
	PriceAtAdd primitive.Decimal128 `bson:"priceAtAdd"`
}

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Items     []cartLineDoc      `bson:"items"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *cartDoc) toDomain() (*domain.Cart, error) {
	items := make([]domain.CartItem, len(d.Items))
	for i, l := range d.Items {
		price, err := fromDecimal128(l.PriceAtAdd)
		if err != nil {
			return nil, err
		}
		items[i] = domain.CartItem{ProductID: l.ProductID, Qty: l.Qty, PriceAtAdd: price}
	}
	return &domain.Cart{UserID: d.UserID, Items: items, UpdatedAt: d.UpdatedAt}, nil
}

func cartLineDocs(items []domain.CartItem) ([]cartLineDoc, error) {
	out := make([]cartLineDoc, len(items))
	for i, it := range items {
		price, err := toDecimal128(it.PriceAtAdd)
		if err != nil {
			return nil, err
		}
		out[i] = cartLineDoc{ProductID: it.ProductID, Qty: it.Qty, PriceAtAdd: price}
	}
	return out, nil
}

type orderLineDoc struct {
	ProductID string               `bson:"productId"`
	Title     string               `bson:"title"`
	Qty       int                  `bson:"qty"`
	Price     primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	UserID     string               `bson:"userId"`
	Items      []orderLineDoc       `bson:"items"`
	Total      primitive.Decimal128 `bson:"total"`
	Status     string               `bson:"status"`
	PaymentRef string               `bson:"paymentRef"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func newOrderDoc(o *domain.Order) (*orderDoc, error) {
	total, err := toDecimal128(o.Total)
	if err != nil {
		return nil, err
	}
	lines := make([]orderLineDoc, len(o.Items))
	for i, it := range o.Items {
		price, err := toDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		lines[i] = orderLineDoc{ProductID: it.ProductID, Title: it.Title, Qty: it.Qty, Price: price}
	}
	return &orderDoc{
		UserID:     o.UserID,
		Items:      lines,
		Total:      total,
		Status:     string(o.Status),
		PaymentRef: o.PaymentRef,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.CreatedAt,
	}, nil
}

func (d *orderDoc) toDomain() (*domain.Order, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, len(d.Items))
	for i, l := range d.Items {
		price, err := fromDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		items[i] = domain.OrderItem{ProductID: l.ProductID, Title: l.Title, Qty: l.Qty, Price: price}
	}
	return &domain.Order{
		ID:         d.ID.Hex(),
		UserID:     d.UserID,
		Items:      items,
		Total:      total,
		Status:     domain.OrderStatus(d.Status),
		PaymentRef: d.PaymentRef,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

type reviewDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	ProductID string             `bson:"productId"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *reviewDoc) toDomain() domain.Review {
	return domain.Review{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ProductID: d.ProductID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt,
	}
}

// geoPoint is a GeoJSON point; coordinates are [lng, lat].
type geoPoint struct {
	Type        string     `bson:"type"`
	Coordinates [2]float64 `bson:"coordinates"`
}

type pharmacyDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Address  string             `bson:"address"`
	Phone    string             `bson:"phone"`
	Rating   float64            `bson:"rating"`
	IsActive bool               `bson:"isActive"`
	Location geoPoint           `bson:"location"`
	Distance float64            `bson:"distance,omitempty"`
}

func (d *pharmacyDoc) toDomain() domain.Pharmacy {
	return domain.Pharmacy{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Address:  d.Address,
		Phone:    d.Phone,
		Rating:   d.Rating,
		IsActive: d.IsActive,
		Location: domain.GeoPoint{Lng: d.Location.Coordinates[0], Lat: d.Location.Coordinates[1]},
	}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	Phone        string             `bson:"phone"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toDomain() domain.User {
	return domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type revokedTokenDoc struct {
	TokenHash string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("invalid decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal128 %s: %w", v, err)
	}
	return d, nil
}

// objectIDs converts hex ids, skipping any that are not valid ObjectIDs.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}
