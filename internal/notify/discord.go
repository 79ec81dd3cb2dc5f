package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// Embed colors keyed to the match category.
const (
	colorRed    = 0xE74C3C // specific target match
	colorPurple = 0x9B59B6 // keychain match
	colorBlue   = 0x3498DB // universal match
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	username   string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// WithUsername overrides the webhook's configured display name.
func WithUsername(name string) DiscordOption {
	return func(d *DiscordNotifier) {
		d.username = name
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendNotification sends a single match as a Discord embed.
func (d *DiscordNotifier) SendNotification(ctx context.Context, n *domain.Notification) error {
	payload := discordWebhookPayload{
		Username: d.username,
		Embeds:   []discordEmbed{buildEmbed(n)},
	}
	return d.post(ctx, payload)
}

func buildEmbed(n *domain.Notification) discordEmbed {
	embed := discordEmbed{
		Title: n.MarketName,
		Color: notificationColor(n),
		Fields: []discordEmbedField{
			{Name: "Price", Value: fmt.Sprintf("$%.2f", n.PriceDollars()), Inline: true},
		},
	}

	if dev := n.Deviation(); dev != nil {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name: "Deviation", Value: fmt.Sprintf("%.2f%%", *dev), Inline: true,
		})
	}

	switch n.NotificationType {
	case domain.NotificationKeychain:
		embed.Description = "Keychain match"
		embed.Fields = append(embed.Fields,
			discordEmbedField{Name: "Charm", Value: n.CharmName, Inline: true},
			discordEmbedField{Name: "Category", Value: n.CharmCategory, Inline: true},
		)
		if n.CharmPriceDisplay != "" {
			embed.Fields = append(embed.Fields, discordEmbedField{
				Name: "Charm Price", Value: n.CharmPriceDisplay, Inline: true,
			})
		}
	default:
		if e := n.TargetItemMatched; e != nil && !e.IsUniversal() {
			embed.Description = "Target item match"
			embed.Fields = append(embed.Fields, discordEmbedField{
				Name: "Matched Keyword", Value: e.Keyword, Inline: true,
			})
		} else {
			embed.Description = "Universal match"
		}
	}

	if n.PercentDiff != nil {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name: "Percent Diff", Value: fmt.Sprintf("%.2f%%", *n.PercentDiff), Inline: true,
		})
	}

	return embed
}

func notificationColor(n *domain.Notification) int {
	switch {
	case n.NotificationType == domain.NotificationKeychain:
		return colorPurple
	case n.TargetItemMatched != nil && n.TargetItemMatched.IsUniversal():
		return colorBlue
	default:
		return colorRed
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
