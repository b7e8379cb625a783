package helper

import (
	"context"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/response"
	"github.com/mark3labs/mcp-go/mcp"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const methodMessagesCreate = "messages/create"

type chatMessage struct {
	Role    string            `json:"role"`
	Content []mcp.TextContent `json:"content"`
}

type chatParams struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// ListResources returns the resources the helper exposes. Entries without a
// uri are skipped and missing optional fields are filled with defaults.
func (c *Client) ListResources(ctx context.Context) ([]response.Resource, error) {
	c.keepalive.Begin()
	defer c.keepalive.End()

	s, err := c.ready(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.call(ctx, s, string(mcp.MethodResourcesList), nil)
	if err != nil {
		return nil, err
	}
	return response.Resources(result), nil
}

// ReadResource returns the text of the first content entry of uri, or ""
// when the helper returns none.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	c.keepalive.Begin()
	defer c.keepalive.End()

	runID := c.opts.Process.RunID
	if c.cacheEnabled() {
		if text, ok := c.opts.Cache.Get(runID, uri); ok {
			if ce := c.logger.Check(zap.DebugLevel, "resource cache hit"); ce != nil {
				age, ttl, _ := c.opts.Cache.GetMetadata(runID, uri)
				ce.Write(zap.String("uri", uri), zap.Duration("age", age), zap.Duration("ttl", ttl))
			}
			return text, nil
		}
	}

	s, err := c.ready(ctx)
	if err != nil {
		return "", err
	}

	result, err := c.call(ctx, s, string(mcp.MethodResourcesRead), mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return "", err
	}

	text := response.ResourceText(result)
	if c.cacheEnabled() {
		if err := c.opts.Cache.Put(runID, uri, text, c.opts.CacheTTL); err != nil {
			c.logger.Debug("resource cache write failed", zap.String("uri", uri), zap.Error(err))
		}
	}
	return text, nil
}

// SendChat sends prompt as the user turn after the configured system
// instruction and returns the first text block of the reply.
func (c *Client) SendChat(ctx context.Context, prompt string) (string, error) {
	c.keepalive.Begin()
	defer c.keepalive.End()

	s, err := c.ready(ctx)
	if err != nil {
		return "", err
	}

	params := chatParams{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: openai.ChatMessageRoleSystem, Content: []mcp.TextContent{mcp.NewTextContent(c.opts.SystemPrompt)}},
			{Role: openai.ChatMessageRoleUser, Content: []mcp.TextContent{mcp.NewTextContent(prompt)}},
		},
	}
	result, err := c.call(ctx, s, methodMessagesCreate, params)
	if err != nil {
		return "", err
	}
	return response.ChatText(result), nil
}

func (c *Client) cacheEnabled() bool {
	return c.opts.Cache != nil && c.opts.CacheTTL > 0
}
