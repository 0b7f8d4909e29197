package pubsub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/multierr"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

// emulatorEnv is honoured by the Pub/Sub library itself; it is only read
// here so credentials are not forced onto a local emulator.
const emulatorEnv = "PUBSUB_EMULATOR_HOST"

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopics          = errors.New("pubsub topic name is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

type topicAdmin interface {
	GetTopic(ctx context.Context, name string) error
}

// Client publishes domain events for the outbox publisher. Topics are never
// created here; a missing topic fails startup and readiness.
type Client struct {
	client    *pubsub.Client
	admin     topicAdmin
	projectID string
	topics    []string
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	psClient, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		admin:     grpcTopicAdmin{client: psClient},
		projectID: projectID,
		topics:    topicNames(cfg),
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"project_id": projectID,
		"topics":     c.topics,
		"emulator":   os.Getenv(emulatorEnv) != "",
	}), "pubsub client initialized")
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if os.Getenv(emulatorEnv) != "" {
		return nil
	}
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

type grpcTopicAdmin struct {
	client *pubsub.Client
}

func (a grpcTopicAdmin) GetTopic(ctx context.Context, name string) error {
	_, err := a.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
	return err
}

// topicNames returns the configured topics, trimmed and de-duplicated, in
// config order.
func topicNames(cfg config.PubSubConfig) []string {
	var names []string
	for _, name := range []string{cfg.OrdersTopic, cfg.CampaignsTopic} {
		name = strings.TrimSpace(name)
		if name != "" && !contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Ping checks every configured topic and reports all missing ones at once.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.admin == nil {
		return errNotInitialized
	}
	if len(c.topics) == 0 {
		return errNoTopics
	}
	var errs error
	for _, name := range c.topics {
		errs = multierr.Append(errs, c.checkTopic(ctx, name))
	}
	return errs
}

func (c *Client) checkTopic(ctx context.Context, name string) error {
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return fmt.Errorf("topic %q not configured", name)
	}
	err := c.admin.GetTopic(ctx, fullName)
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("topic %q does not exist", fullName)
	}
	return fmt.Errorf("checking topic %q: %w", fullName, err)
}

// Publisher returns a publisher for a topic ID or full resource name. Callers
// own the handle and must Stop it.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return nil
	}
	return c.client.Publisher(fullName)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicResourceName(name string) string {
	if c == nil {
		return ""
	}
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/"):
		return name
	case c.projectID == "":
		return ""
	}
	return "projects/" + c.projectID + "/topics/" + name
}
