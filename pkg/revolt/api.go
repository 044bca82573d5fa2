// Copyright 2024-2026 Aiku AI

package revolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// restClient is a thin typed wrapper over the Revolt REST API, authenticated
// with the x-bot-token header.
type restClient struct {
	http      *http.Client
	baseURL   string
	autumnURL string
	token     string
}

func newRESTClient(baseURL, autumnURL, token string) *restClient {
	return &restClient{
		http:      &http.Client{Timeout: 30 * time.Second},
		baseURL:   baseURL,
		autumnURL: autumnURL,
		token:     token,
	}
}

func (r *restClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Bot-Token", r.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("revolt api returned HTTP %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (r *restClient) sendMessage(ctx context.Context, channelID string, req *sendMessageRequest) (*apiMessage, error) {
	var msg apiMessage
	err := r.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", req, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *restClient) editMessage(ctx context.Context, channelID, messageID, content string) error {
	return r.do(ctx, http.MethodPatch, "/channels/"+channelID+"/messages/"+messageID,
		&editMessageRequest{Content: content}, nil)
}

func (r *restClient) deleteMessage(ctx context.Context, channelID, messageID string) error {
	return r.do(ctx, http.MethodDelete, "/channels/"+channelID+"/messages/"+messageID, nil, nil)
}

func (r *restClient) fetchMessage(ctx context.Context, channelID, messageID string) (*apiMessage, error) {
	var msg apiMessage
	err := r.do(ctx, http.MethodGet, "/channels/"+channelID+"/messages/"+messageID, nil, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *restClient) fetchChannel(ctx context.Context, channelID string) (*apiChannel, error) {
	var ch apiChannel
	err := r.do(ctx, http.MethodGet, "/channels/"+channelID, nil, &ch)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *restClient) fetchUser(ctx context.Context, userID string) (*apiUser, error) {
	var user apiUser
	err := r.do(ctx, http.MethodGet, "/users/"+userID, nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// fileURL builds the CDN (autumn) URL of an uploaded file.
func (r *restClient) fileURL(f *apiFile) string {
	if f == nil {
		return ""
	}
	return r.autumnURL + "/" + f.Tag + "/" + f.ID + "/" + f.Filename
}
