// Package catalog reads product data from the external product service.
// The catalog is read-only from this service's point of view; prices seen
// here are live display prices until checkout freezes them.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/consul"
)

var ErrProductNotFound = errors.New("product not found")

// Product mirrors the product service's response. Price is in the smallest
// currency unit.
type Product struct {
	ID    string `json:"product_id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

type Reader interface {
	GetProductByID(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// HTTPReader discovers the product service through consul and talks plain HTTP.
type HTTPReader struct {
	client      *consulapi.Client
	serviceName string
	httpClient  *http.Client
}

func NewHTTPReader(client *consulapi.Client, serviceName string) (*HTTPReader, error) {
	if client == nil {
		return nil, fmt.Errorf("consul client is nil")
	}
	return &HTTPReader{
		client:      client,
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (r *HTTPReader) GetProductByID(ctx context.Context, productID string) (Product, error) {
	var product Product
	err := r.get(ctx, fmt.Sprintf("/products/%s", productID), &product)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (r *HTTPReader) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *HTTPReader) get(ctx context.Context, path string, out any) error {
	address, port, err := consul.GetServiceAddress(r.client, r.serviceName)
	if err != nil {
		return fmt.Errorf("product service unavailable: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d%s", address, port, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach product service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrProductNotFound
	default:
		return fmt.Errorf("product service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode product response: %w", err)
	}
	return nil
}
