package mongostore

import (
	"time"

	"storefront/model"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type saleDoc struct {
	IsOnSale           bool                  `bson:"isOnSale"`
	DiscountPercentage primitive.Decimal128  `bson:"discountPercentage"`
	SalePrice          *primitive.Decimal128 `bson:"salePrice"`
	SaleStart          *time.Time            `bson:"saleStart"`
	SaleEnd            *time.Time            `bson:"saleEnd"`
}

type productDoc struct {
	ID            string               `bson:"_id"`
	Name          string               `bson:"name"`
	Description   string               `bson:"description"`
	Price         primitive.Decimal128 `bson:"price"`
	Stock         int                  `bson:"stock"`
	Category      string               `bson:"category"`
	Brand         string               `bson:"brand"`
	ImageFilename string               `bson:"imageFilename"`
	IsActive      bool                 `bson:"isActive"`
	Sale          saleDoc              `bson:"sale"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

type userDoc struct {
	ID            string    `bson:"_id"`
	FirstName     string    `bson:"firstName"`
	LastName      string    `bson:"lastName"`
	Email         string    `bson:"email"`
	Password      string    `bson:"password"`
	MobileNo      string    `bson:"mobileNo"`
	IsAdmin       bool      `bson:"isAdmin"`
	LikedProducts []string  `bson:"likedProducts"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

type cartItemDoc struct {
	ProductID string               `bson:"productId"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type cartDoc struct {
	ID         string               `bson:"_id"`
	UserID     string               `bson:"userId"`
	CartItems  []cartItemDoc        `bson:"cartItems"`
	TotalPrice primitive.Decimal128 `bson:"totalPrice"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

type orderItemDoc struct {
	ProductID string `bson:"productId"`
	Quantity  int    `bson:"quantity"`
}

type shippingDoc struct {
	FullName      string `bson:"fullName"`
	Address       string `bson:"address"`
	ContactNumber string `bson:"contactNumber"`
}

type orderDoc struct {
	ID             string         `bson:"_id"`
	Reference      string         `bson:"reference"`
	UserID         string         `bson:"userId"`
	Items          []orderItemDoc `bson:"items"`
	ShippingInfo   shippingDoc    `bson:"shippingInfo"`
	Status         string         `bson:"status"`
	IdempotencyKey string         `bson:"idempotencyKey"`
	CreatedAt      time.Time      `bson:"createdAt"`
	UpdatedAt      time.Time      `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// more than 34 significant digits
		v, _ = primitive.ParseDecimal128(d.Round(2).String())
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toProductDoc(p *model.Product) productDoc {
	doc := productDoc{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         toDecimal128(p.Price),
		Stock:         p.Stock,
		Category:      p.Category,
		Brand:         p.Brand,
		ImageFilename: p.ImageFilename,
		IsActive:      p.IsActive,
		Sale: saleDoc{
			IsOnSale:           p.Sale.IsOnSale,
			DiscountPercentage: toDecimal128(p.Sale.DiscountPercentage),
			SaleStart:          p.Sale.SaleStart,
			SaleEnd:            p.Sale.SaleEnd,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Sale.SalePrice != nil {
		v := toDecimal128(*p.Sale.SalePrice)
		doc.Sale.SalePrice = &v
	}
	return doc
}

func (d productDoc) toModel() model.Product {
	p := model.Product{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Price:         fromDecimal128(d.Price),
		Stock:         d.Stock,
		Category:      d.Category,
		Brand:         d.Brand,
		ImageFilename: d.ImageFilename,
		IsActive:      d.IsActive,
		Sale: model.Sale{
			IsOnSale:           d.Sale.IsOnSale,
			DiscountPercentage: fromDecimal128(d.Sale.DiscountPercentage),
			SaleStart:          d.Sale.SaleStart,
			SaleEnd:            d.Sale.SaleEnd,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Sale.SalePrice != nil {
		v := fromDecimal128(*d.Sale.SalePrice)
		p.Sale.SalePrice = &v
	}
	return p
}

func toUserDoc(u *model.User) userDoc {
	liked := u.LikedProducts
	if liked == nil {
		liked = []string{}
	}
	return userDoc{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Password:      u.Password,
		MobileNo:      u.MobileNo,
		IsAdmin:       u.IsAdmin,
		LikedProducts: liked,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (d userDoc) toModel() model.User {
	liked := d.LikedProducts
	if liked == nil {
		liked = []string{}
	}
	return model.User{
		ID:            d.ID,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		Password:      d.Password,
		MobileNo:      d.MobileNo,
		IsAdmin:       d.IsAdmin,
		LikedProducts: liked,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func toCartDoc(c *model.Cart) cartDoc {
	items := make([]cartItemDoc, 0, len(c.CartItems))
	for _, item := range c.CartItems {
		items = append(items, cartItemDoc{ProductID: item.ProductID, Quantity: item.Quantity, Price: toDecimal128(item.Price)})
	}
	return cartDoc{
		ID:         c.ID,
		UserID:     c.UserID,
		CartItems:  items,
		TotalPrice: toDecimal128(c.TotalPrice),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (d cartDoc) toModel() model.Cart {
	items := make([]model.CartItem, 0, len(d.CartItems))
	for _, item := range d.CartItems {
		items = append(items, model.CartItem{ProductID: item.ProductID, Quantity: item.Quantity, Price: fromDecimal128(item.Price)})
	}
	return model.Cart{
		ID:         d.ID,
		UserID:     d.UserID,
		CartItems:  items,
		TotalPrice: fromDecimal128(d.TotalPrice),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func toOrderDoc(o *model.Order) orderDoc {
	items := make([]orderItemDoc, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemDoc{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return orderDoc{
		ID:        o.ID,
		Reference: o.Reference,
		UserID:    o.UserID,
		Items:     items,
		ShippingInfo: shippingDoc{
			FullName:      o.ShippingInfo.FullName,
			Address:       o.ShippingInfo.Address,
			ContactNumber: o.ShippingInfo.ContactNumber,
		},
		Status:         string(o.Status),
		IdempotencyKey: o.IdempotencyKey,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func (d orderDoc) toModel() model.Order {
	items := make([]model.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, model.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return model.Order{
		ID:        d.ID,
		Reference: d.Reference,
		UserID:    d.UserID,
		Items:     items,
		ShippingInfo: model.ShippingInfo{
			FullName:      d.ShippingInfo.FullName,
			Address:       d.ShippingInfo.Address,
			ContactNumber: d.ShippingInfo.ContactNumber,
		},
		Status:         model.OrderStatus(d.Status),
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
