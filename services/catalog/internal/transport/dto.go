package transport

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Skotchmaster/veranda/services/catalog/internal/models"
)

type CreateProductRequest struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	CategoryID       *uuid.UUID      `json:"categoryId"`
	MaterialID       *uuid.UUID      `json:"materialId"`
	ImageURI         *string         `json:"imageUri"`
	ProductImageURLs []string        `json:"productImageUrls"`
	Specs            json.RawMessage `json:"specs"`
	PriceRange       string          `json:"priceRange"`
	Stock            *int            `json:"stock"`
	Availability     *bool           `json:"availability"`
}

// PatchProductRequest leaves nil fields untouched.
type PatchProductRequest struct {
	Name             *string         `json:"name"`
	Description      *string         `json:"description"`
	CategoryID       *uuid.UUID      `json:"categoryId"`
	MaterialID       *uuid.UUID      `json:"materialId"`
	ImageURI         *string         `json:"imageUri"`
	ProductImageURLs *[]string       `json:"productImageUrls"`
	Specs            json.RawMessage `json:"specs"`
	PriceRange       *string         `json:"priceRange"`
	Stock            *int            `json:"stock"`
	Availability     *bool           `json:"availability"`
}

type CreateCategoryRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	ImageURI      *string `json:"imageUri"`
	IsActive      *bool   `json:"isActive"`
	CategoryOrder int     `json:"categoryOrder"`
}

type CreateMaterialRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ImageURI    *string `json:"imageUri"`
}

type ProductFilter struct {
	CategoryID *uuid.UUID
	MaterialID *uuid.UUID
	// nil lists every product regardless of availability
	Availability *bool
}

type ProductCount struct {
	Products int64 `json:"products"`
}

type Category struct {
	models.Category
	Count ProductCount `json:"_count"`
}

type Material struct {
	models.Material
	Count ProductCount `json:"_count"`
}

type Page struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type ProductList struct {
	Data []models.Product `json:"data"`
	Meta Page             `json:"meta"`
}

type Asset struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
