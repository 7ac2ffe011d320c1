package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
)

type CreateItem struct {
	ProductID   string          `json:"productId"`
	Quantity    int             `json:"quantity"`
	CustomSpecs json.RawMessage `json:"customSpecs,omitempty"`
}

type CreateRequest struct {
	Items []CreateItem `json:"items"`
	Notes *string      `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type PostMessageRequest struct {
	QuoteRequestID string `json:"quoteRequestId"`
	Content        string `json:"content"`
}

type Owner struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CompanyName *string   `json:"companyName"`
}

type Sender struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Material struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Product struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	ImageURI         *string         `json:"imageUri"`
	ProductImageURLs []string        `json:"productImageUrls"`
	PriceRange       string          `json:"priceRange"`
	Specs            json.RawMessage `json:"specs,omitempty"`
	Category         *Category       `json:"category"`
	Material         *Material       `json:"material"`
}

type Item struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	Quantity    int             `json:"quantity"`
	CustomSpecs json.RawMessage `json:"customSpecs"`
	Product     Product         `json:"product"`
}

type Message struct {
	ID             uuid.UUID `json:"id"`
	QuoteRequestID uuid.UUID `json:"quoteRequestId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	FromUser       Sender    `json:"fromUser"`
}

type QuoteRequest struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"userId"`
	Status    models.Status `json:"status"`
	Notes     *string       `json:"notes"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	User      Owner         `json:"user"`
	Items     []Item        `json:"items"`
	Messages  []Message     `json:"messages"`
}

func NewMessage(m *models.Message) Message {
	return Message{
		ID:             m.ID,
		QuoteRequestID: m.QuoteRequestID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		FromUser:       Sender{ID: m.FromUser.ID, Name: m.FromUser.Name, Role: m.FromUser.Role},
	}
}

func NewMessages(ms []models.Message) []Message {
	out := make([]Message, 0, len(ms))
	for i := range ms {
		out = append(out, NewMessage(&ms[i]))
	}
	return out
}

func newProduct(p *models.Product) Product {
	out := Product{
		ID:               p.ID,
		Name:             p.Name,
		ImageURI:         p.ImageURI,
		ProductImageURLs: []string(p.ProductImageURLs),
		PriceRange:       p.PriceRange,
		Specs:            json.RawMessage(p.Specs),
	}
	if out.ProductImageURLs == nil {
		out.ProductImageURLs = []string{}
	}
	if p.Category != nil {
		out.Category = &Category{ID: p.Category.ID, Name: p.Category.Name}
	}
	if p.Material != nil {
		out.Material = &Material{ID: p.Material.ID, Name: p.Material.Name}
	}
	return out
}

func NewQuoteRequest(q *models.QuoteRequest) QuoteRequest {
	out := QuoteRequest{
		ID:        q.ID,
		UserID:    q.UserID,
		Status:    q.Status,
		Notes:     q.Notes,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
		User: Owner{
			ID:          q.User.ID,
			Name:        q.User.Name,
			Email:       q.User.Email,
			CompanyName: q.User.CompanyName,
		},
		Items:    make([]Item, 0, len(q.Items)),
		Messages: NewMessages(q.Messages),
	}
	for i := range q.Items {
		it := &q.Items[i]
		var specs json.RawMessage
		if len(it.CustomSpecs) > 0 {
			specs = json.RawMessage(it.CustomSpecs)
		}
		out.Items = append(out.Items, Item{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			CustomSpecs: specs,
			Product:     newProduct(&it.Product),
		})
	}
	return out
}

func NewQuoteRequests(qs []models.QuoteRequest) []QuoteRequest {
	out := make([]QuoteRequest, 0, len(qs))
	for i := range qs {
		out = append(out, NewQuoteRequest(&qs[i]))
	}
	return out
}

// ExportRow is one CSV line: a single item of a request.
type ExportRow struct {
	RequestID   string `csv:"request_id"`
	CreatedAt   string `csv:"created_at"`
	Status      string `csv:"status"`
	ClientName  string `csv:"client_name"`
	ClientEmail string `csv:"client_email"`
	Company     string `csv:"company"`
	ProductID   string `csv:"product_id"`
	ProductName string `csv:"product_name"`
	Quantity    int    `csv:"quantity"`
	CustomSpecs string `csv:"custom_specs"`
	Notes       string `csv:"notes"`
}

func NewExportRows(qs []models.QuoteRequest) []ExportRow {
	var rows []ExportRow
	for i := range qs {
		q := &qs[i]
		base := ExportRow{
			RequestID:   q.ID.String(),
			CreatedAt:   q.CreatedAt.UTC().Format(time.RFC3339),
			Status:      string(q.Status),
			ClientName:  q.User.Name,
			ClientEmail: q.User.Email,
			Company:     deref(q.User.CompanyName),
			Notes:       deref(q.Notes),
		}
		for j := range q.Items {
			it := &q.Items[j]
			row := base
			row.ProductID = it.ProductID.String()
			row.ProductName = it.Product.Name
			row.Quantity = it.Quantity
			row.CustomSpecs = string(it.CustomSpecs)
			rows = append(rows, row)
		}
	}
	return rows
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
