package catalog

import (
	"time"

	"github.com/leeforge/giftstudio/editor"
	"github.com/leeforge/giftstudio/tokenstore"
)

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the body of the login and refresh responses.
type TokenPair struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	ExpiresIn int    `json:"expires_in,omitempty"` // seconds
}

func (p TokenPair) tokens(now time.Time) tokenstore.Tokens {
	t := tokenstore.Tokens{Access: p.Access, Refresh: p.Refresh}
	if p.ExpiresIn > 0 {
		t.ExpiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second)
	}
	return t
}

// Resource names an admin collection.
type Resource string

const (
	Categories   Resource = "categories"
	Frames       Resource = "frames"
	MatBoards    Resource = "mat-boards"
	Gifts        Resource = "gifts"
	PrintOptions Resource = "print-options"
	Products     Resource = "products"
)

func (r Resource) Valid() bool {
	switch r {
	case Categories, Frames, MatBoards, Gifts, PrintOptions, Products:
		return true
	}
	return false
}

// Record is one admin entity as the service returns it.
type Record map[string]any

// Page is a paginated listing.
type Page struct {
	Count    int      `json:"count"`
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
	Results  []Record `json:"results"`
}

// File is an in-memory file part of a multipart request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *File) empty() bool { return f == nil || len(f.Data) == 0 }

type CartItem struct {
	ID         int               `json:"id"`
	ProductID  int               `json:"product_id"`
	Quantity   int               `json:"quantity"`
	PreviewURL string            `json:"preview_url,omitempty"`
	Placement  *editor.Placement `json:"placement,omitempty"`
	Price      string            `json:"price,omitempty"`
}

type Cart struct {
	ID    int        `json:"id"`
	Items []CartItem `json:"items"`
	Total string     `json:"total"`
}

// AddToCartRequest adds a personalised product with its flattened preview.
type AddToCartRequest struct {
	ProductID int               `json:"product_id" validate:"required,gt=0"`
	VariantID int               `json:"variant_id,omitempty" validate:"gte=0"`
	Quantity  int               `json:"quantity" validate:"required,gte=1"`
	Placement *editor.Placement `json:"placement,omitempty"`
	// PreviewURL points at the stored output when Preview is not sent inline.
	PreviewURL string `json:"preview_url,omitempty" validate:"omitempty,url"`
	Preview    *File  `json:"-"`
	// PrintURL is the full-resolution print file.
	PrintURL string `json:"print_url,omitempty" validate:"omitempty,url"`
}

type PrintOrderRequest struct {
	Copies    int    `json:"copies" validate:"required,gte=1,lte=1000"`
	PaperSize string `json:"paper_size" validate:"required,oneof=A3 A4 A5 Letter"`
	Color     bool   `json:"color"`
	Duplex    bool   `json:"duplex"`
	Notes     string `json:"notes,omitempty" validate:"max=500"`
	Document  *File  `json:"-" validate:"required"`
}

type PaymentConfirmation struct {
	OrderID   int    `json:"order_id" validate:"required,gt=0"`
	Reference string `json:"reference" validate:"required"`
	Method    string `json:"method,omitempty"`
}

type Order struct {
	ID        int       `json:"id"`
	Status    string    `json:"status"`
	Total     string    `json:"total,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
