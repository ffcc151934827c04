package nostr

import (
	"context"       // Per-relay timeouts
	"encoding/json" // Profile metadata content
	"errors"        // Sentinel errors
	"fmt"           // Content formatting
	"strings"       // Content assembly
	"time"          // Publish timeouts

	"github.com/nbd-wtf/go-nostr" // Nostr protocol library
	"github.com/sirupsen/logrus"  // Logging library

	"ganamos/internal/utils" // Sats formatting
)

// DefaultRelays are the relays posts are mirrored to
var DefaultRelays = []string{
	"wss://relay.damus.io",
	"wss://nostr.wine",
	"wss://relay.snort.social",
	"wss://nos.lol",
	"wss://relay.primal.net",
}

// ErrNotConfigured is returned when no private key is configured
var ErrNotConfigured = errors.New("nostr private key not configured")

// Publisher signs and publishes events to a relay set
type Publisher struct {
	privateKey string   // Hex-encoded private key
	relays     []string // Relay URLs
	appURL     string   // Public base URL for post links
}

// NewPublisher creates a Publisher for the given key and the default relays
func NewPublisher(privateKey, appURL string) *Publisher {
	return &Publisher{
		privateKey: privateKey,
		relays:     DefaultRelays,
		appURL:     appURL,
	}
}

// PostParams describes an issue to mirror to the relays
type PostParams struct {
	PostID      string  // Post identifier, used in the link
	Title       string  // Short title
	Description string  // Full description
	City        string  // City name
	Latitude    float64 // Location latitude
	Longitude   float64 // Location longitude
	Reward      int64   // Reward in sats
	ImageURL    string  // Optional image link
}

// Result reports where an event ended up
type Result struct {
	EventID         string `json:"event_id"`         // Signed event ID
	RelaysPublished int    `json:"relays_published"` // How many relays accepted it
}

// PublishPost publishes an issue as a kind-1 text note
func (p *Publisher) PublishPost(ctx context.Context, params PostParams) (*Result, error) {
	var content strings.Builder
	content.WriteString(params.Title + "\n\n")
	content.WriteString(params.Description + "\n\n")
	if params.City != "" {
		content.WriteString("📍 " + params.City + "\n")
	}
	if params.Reward > 0 {
		content.WriteString("⚡ Reward: " + utils.FormatSatsValue(params.Reward) + "\n")
	}
	link := p.appURL + "/post/" + params.PostID
	content.WriteString("\n" + link)
	if params.ImageURL != "" {
		content.WriteString("\n" + params.ImageURL)
	}

	tags := nostr.Tags{
		nostr.Tag{"t", "ganamos"},
		nostr.Tag{"r", link},
	}
	// Attach the location when we have one
	if params.Latitude != 0 || params.Longitude != 0 {
		tags = append(tags, nostr.Tag{"location", fmt.Sprintf("%f,%f", params.Latitude, params.Longitude)})
	}

	ev := nostr.Event{
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
		Tags:      tags,
		Content:   content.String(),
	}
	return p.publish(ctx, ev)
}

// ProfileParams is the public metadata for the application's Nostr account
type ProfileParams struct {
	Name    string `json:"name"`    // Display name
	About   string `json:"about"`   // Bio text
	Picture string `json:"picture"` // Avatar URL
	Website string `json:"website"` // Site link
}

// SetupProfile publishes the account metadata as a kind-0 event
func (p *Publisher) SetupProfile(ctx context.Context, params ProfileParams) (*Result, error) {
	content, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	ev := nostr.Event{
		Kind:      nostr.KindProfileMetadata,
		CreatedAt: nostr.Now(),
		Tags:      nostr.Tags{},
		Content:   string(content),
	}
	return p.publish(ctx, ev)
}

// publish signs the event and sends it to every relay, counting acceptances
func (p *Publisher) publish(ctx context.Context, ev nostr.Event) (*Result, error) {
	if p.privateKey == "" {
		return nil, ErrNotConfigured
	}
	if err := ev.Sign(p.privateKey); err != nil {
		return nil, fmt.Errorf("failed to sign event: %w", err)
	}

	published := 0
	for _, url := range p.relays {
		relayCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		relay, err := nostr.RelayConnect(relayCtx, url)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"relay": url,         // Which relay failed
				"error": err.Error(), // Connection error
			}).Warn("Failed to connect to relay")
			cancel()
			continue
		}
		if err := relay.Publish(relayCtx, ev); err != nil {
			logrus.WithFields(logrus.Fields{
				"relay": url,         // Which relay failed
				"error": err.Error(), // Publish error
			}).Warn("Failed to publish to relay")
		} else {
			published++
		}
		relay.Close()
		cancel()
	}
	if published == 0 {
		return nil, errors.New("failed to publish to any relay")
	}
	logrus.WithFields(logrus.Fields{
		"event_id": ev.ID,     // Signed event ID
		"relays":   published, // How many relays accepted it
	}).Info("Published to Nostr")
	return &Result{EventID: ev.ID, RelaysPublished: published}, nil
}
