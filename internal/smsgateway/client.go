// Package smsgateway реализует HTTP-клиент внешнего SMS-шлюза,
// через который отправляются приветственные сообщения пользователям.
package smsgateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Client клиент SMS-шлюза.
type Client struct {
	apiURL     string
	apiKey     string
	sender     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент SMS-шлюза.
func NewClient(apiURL, apiKey, sender string) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		sender:     sender,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// SendSMS отправляет сообщение text на номер phoneNumber.
func (c *Client) SendSMS(phoneNumber, text string) (*SendResponse, error) {
	req, err := c.newRequest("POST", "/messages", SendRequest{
		To:   phoneNumber,
		From: c.sender,
		Text: text,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var sendResp SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sendResp); err != nil {
		return nil, err
	}
	return &sendResp, nil
}
