package apiclient

import (
	"encoding/json"
	"time"
)

type User struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	CompanyName *string `json:"companyName"`
	Role        string  `json:"role"`
}

type LoginResponse struct {
	IsAdmin bool `json:"is_admin"`
	User    User `json:"user"`
}

type RegisterInput struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Name        string  `json:"name"`
	CompanyName *string `json:"companyName,omitempty"`
	ContactInfo *string `json:"contactInfo,omitempty"`
}

type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ImageURI         *string         `json:"imageUri"`
	ProductImageURLs []string        `json:"productImageUrls"`
	Specs            json.RawMessage `json:"specs"`
	PriceRange       string          `json:"priceRange"`
	Stock            int             `json:"stock"`
	Availability     bool            `json:"availability"`
	Category         *Ref            `json:"category"`
	Material         *Ref            `json:"material"`
}

type Page struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

type ProductList struct {
	Data []Product `json:"data"`
	Meta Page      `json:"meta"`
}

type ProductQuery struct {
	CategoryID string
	MaterialID string
	// All includes unavailable products.
	All  bool
	Page int
	Size int
}

type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type Message struct {
	ID             string    `json:"id"`
	QuoteRequestID string    `json:"quoteRequestId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	FromUser       Sender    `json:"fromUser"`
}

type Item struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	Quantity    int             `json:"quantity"`
	CustomSpecs json.RawMessage `json:"customSpecs"`
	Product     Product         `json:"product"`
}

type QuoteRequest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      User      `json:"user"`
	Items     []Item    `json:"items"`
	Messages  []Message `json:"messages"`
}

type Stats struct {
	TotalRequests   int64 `json:"totalRequests"`
	PendingRequests int64 `json:"pendingRequests"`
	TotalProducts   int64 `json:"totalProducts"`
	UniqueClients   int64 `json:"uniqueClients"`
}

// Envelope is one notification pushed over the event stream.
type Envelope struct {
	ID        string          `json:"id"`
	Channel   string          `json:"channel"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emittedAt"`
}

type NewMessagePayload struct {
	Message        Message `json:"message"`
	QuoteRequestID string  `json:"quoteRequestId"`
}

type StatusUpdatePayload struct {
	QuoteRequestID string `json:"quoteRequestId"`
	Status         string `json:"status"`
}
