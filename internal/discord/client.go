// Package discord implements the chat-platform gateway over the Discord
// REST API (role queries, role mutations, message delivery).
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
)

const httpCallTimeout = 10 * time.Second

// Client is a minimal Discord REST client implementing domain.Gateway.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ domain.Gateway = (*Client)(nil)

// NewClient creates a gateway client. baseURL is the API root, e.g.
// "https://discord.com/api/v10"; overridable for tests.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: httpCallTimeout},
	}
}

// MemberRoles returns the role IDs currently held by a guild member.
func (c *Client) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s", url.PathEscape(guildID), url.PathEscape(userID))

	var member struct {
		Roles []string `json:"roles"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, "", &member); err != nil {
		return nil, err
	}
	return member.Roles, nil
}

// GrantRoles adds the given roles to a member, one call per role as the
// API requires. The reason lands in the guild's audit log.
func (c *Client) GrantRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error {
	for _, roleID := range roleIDs {
		path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s",
			url.PathEscape(guildID), url.PathEscape(userID), url.PathEscape(roleID))
		if err := c.do(ctx, http.MethodPut, path, nil, reason, nil); err != nil {
			return fmt.Errorf("failed to grant role %s: %w", roleID, err)
		}
	}
	return nil
}

// RevokeRoles removes the given roles from a member.
func (c *Client) RevokeRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error {
	for _, roleID := range roleIDs {
		path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s",
			url.PathEscape(guildID), url.PathEscape(userID), url.PathEscape(roleID))
		if err := c.do(ctx, http.MethodDelete, path, nil, reason, nil); err != nil {
			return fmt.Errorf("failed to revoke role %s: %w", roleID, err)
		}
	}
	return nil
}

// SendMessage posts a message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	body := map[string]any{"content": content}
	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))
	return c.do(ctx, http.MethodPost, path, body, "", nil)
}

// Reply posts a message referencing an existing message in the channel.
func (c *Client) Reply(ctx context.Context, channelID, messageID, content string) error {
	body := map[string]any{
		"content":           content,
		"message_reference": map[string]string{"message_id": messageID},
	}
	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))
	return c.do(ctx, http.MethodPost, path, body, "", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, auditReason string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auditReason != "" {
		req.Header.Set("X-Audit-Log-Reason", auditReason)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return notFoundError(path)
	case resp.StatusCode == http.StatusForbidden:
		return domain.ErrForbidden
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord returned status %d: %s", resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// notFoundError maps a 404 to the matching domain sentinel based on the
// resource addressed by the path.
func notFoundError(path string) error {
	if len(path) > 0 && containsSegment(path, "roles") {
		return domain.ErrRoleNotFound
	}
	return domain.ErrMemberNotFound
}

func containsSegment(path, segment string) bool {
	for start := 0; start < len(path); {
		end := start
		for end < len(path) && path[end] != '/' {
			end++
		}
		if path[start:end] == segment {
			return true
		}
		start = end + 1
	}
	return false
}
