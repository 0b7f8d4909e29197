package pubsub

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
)

type stubAdmin struct {
	missing map[string]bool
	checked []string
}

func (s *stubAdmin) GetTopic(_ context.Context, name string) error {
	s.checked = append(s.checked, name)
	if s.missing[name] {
		return status.Error(codes.NotFound, "topic not found")
	}
	return nil
}

func TestTopicNamesDeduplicates(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "tf-events", CampaignsTopic: " tf-events "})
	if len(names) != 1 || names[0] != "tf-events" {
		t.Fatalf("expected single topic, got %v", names)
	}
}

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "teeforge"}
	if got := c.topicResourceName("tf-order-events"); got != "projects/teeforge/topics/tf-order-events" {
		t.Fatalf("unexpected resource name %q", got)
	}
	full := "projects/other/topics/x"
	if got := c.topicResourceName(full); got != full {
		t.Fatalf("expected full name to pass through, got %q", got)
	}
	if got := c.topicResourceName("  "); got != "" {
		t.Fatalf("expected empty name, got %q", got)
	}
}

func TestPingReportsMissingTopic(t *testing.T) {
	admin := &stubAdmin{missing: map[string]bool{"projects/teeforge/topics/tf-campaign-events": true}}
	c := &Client{
		admin:     admin,
		projectID: "teeforge",
		topics:    topicNames(config.PubSubConfig{OrdersTopic: "tf-order-events", CampaignsTopic: "tf-campaign-events"}),
	}

	err := c.Ping(context.Background())
	if err == nil {
		t.Fatal("expected missing topic error")
	}
	if !strings.Contains(err.Error(), "tf-campaign-events") {
		t.Fatalf("expected missing topic named, got %v", err)
	}
	if len(admin.checked) != 2 {
		t.Fatalf("expected both topics checked, got %v", admin.checked)
	}
}

func TestPingCollectsEveryMissingTopic(t *testing.T) {
	admin := &stubAdmin{missing: map[string]bool{
		"projects/teeforge/topics/tf-order-events":    true,
		"projects/teeforge/topics/tf-campaign-events": true,
	}}
	c := &Client{admin: admin, projectID: "teeforge", topics: []string{"tf-order-events", "tf-campaign-events"}}

	err := c.Ping(context.Background())
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected two errors, got %d (%v)", got, err)
	}
}

func TestPingWithoutAdminIsNotInitialized(t *testing.T) {
	var c *Client
	if err := c.Ping(context.Background()); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
}

func TestPingRequiresTopics(t *testing.T) {
	c := &Client{admin: &stubAdmin{}, projectID: "teeforge"}
	if err := c.Ping(context.Background()); err != errNoTopics {
		t.Fatalf("expected errNoTopics, got %v", err)
	}
}
