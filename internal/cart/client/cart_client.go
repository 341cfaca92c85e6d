package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Avi18971911/Emporium/internal/cart/model"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
)

// StatusError carries a non-OK response from the cart service so callers can
// relay the downstream status and message.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cart service returned status %d: %s", e.StatusCode, e.Message)
}

// CartClient is the typed HTTP client for the cart service.
type CartClient interface {
	GetCart(ctx context.Context, userId string) (*model.Cart, error)
	AddItem(ctx context.Context, userId string, item model.CartItem) error
	EmptyCart(ctx context.Context, userId string) error
}

type CartClientImpl struct {
	baseUrl string
	client  *middleware.HTTPClient
}

func NewCartClientImpl(baseUrl string, client *middleware.HTTPClient) *CartClientImpl {
	return &CartClientImpl{
		baseUrl: baseUrl,
		client:  client,
	}
}

func (cc *CartClientImpl) GetCart(ctx context.Context, userId string) (*model.Cart, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		cc.baseUrl+"/cart/"+url.PathEscape(userId),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating cart request: %w", err)
	}
	res, err := cc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling the cart service: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, statusError(res)
	}
	var cart model.Cart
	if err := json.NewDecoder(res.Body).Decode(&cart); err != nil {
		return nil, fmt.Errorf("error decoding cart response: %w", err)
	}
	return &cart, nil
}

func (cc *CartClientImpl) AddItem(ctx context.Context, userId string, item model.CartItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("error encoding cart item: %w", err)
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		cc.baseUrl+"/cart/"+url.PathEscape(userId)+"/items",
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("error creating add item request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := cc.client.Do(req)
	if err != nil {
		return fmt.Errorf("error calling the cart service: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return statusError(res)
	}
	return nil
}

func (cc *CartClientImpl) EmptyCart(ctx context.Context, userId string) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodDelete,
		cc.baseUrl+"/cart/"+url.PathEscape(userId),
		nil,
	)
	if err != nil {
		return fmt.Errorf("error creating empty cart request: %w", err)
	}
	res, err := cc.client.Do(req)
	if err != nil {
		return fmt.Errorf("error calling the cart service: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return statusError(res)
	}
	return nil
}

func statusError(res *http.Response) error {
	var errorMessage struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&errorMessage); err != nil || errorMessage.Error == "" {
		return &StatusError{StatusCode: res.StatusCode, Message: http.StatusText(res.StatusCode)}
	}
	return &StatusError{StatusCode: res.StatusCode, Message: errorMessage.Error}
}
