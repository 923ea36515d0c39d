package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type apiError struct {
	Error string `json:"error"`
}

// Client talks to the marketplace HTTP API and returns response bodies as text.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

func (c *Client) send(req *resty.Request, method, path string) (string, error) {
	var apiErr apiError
	resp, err := req.SetError(&apiErr).Execute(method, path)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return "", fmt.Errorf("%s: %s", resp.Status(), apiErr.Error)
		}
		return "", fmt.Errorf("%s", resp.Status())
	}
	return resp.String(), nil
}

func (c *Client) Login(email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	req := c.http.R().
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out)
	if _, err := c.send(req, resty.MethodPost, "/api/users/login"); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Search(params map[string]string) (string, error) {
	query := make(map[string]string, len(params))
	for k, v := range params {
		if v != "" {
			query[k] = v
		}
	}
	return c.send(c.http.R().SetQueryParams(query), resty.MethodGet, "/api/offers/search")
}

func (c *Client) PlaceOrder(offerID string, quantity int, address string) (string, error) {
	body := map[string]interface{}{
		"offer_id":         offerID,
		"quantity":         quantity,
		"delivery_address": address,
	}
	return c.send(c.http.R().SetBody(body), resty.MethodPost, "/api/orders")
}

func (c *Client) UpdateStatus(orderID, status string) (string, error) {
	return c.send(c.http.R().SetBody(map[string]string{"status": status}),
		resty.MethodPost, "/api/orders/"+orderID+"/status")
}
