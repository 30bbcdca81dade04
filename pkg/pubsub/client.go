package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const analyticsAckDeadlineSeconds = 60

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoSubscriptions   = errors.New("pubsub subscription name is required")
	errNoTopics          = errors.New("pubsub topic name is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// topicAdmin and subscriptionAdmin are the slices of the generated admin
// clients this package touches.
type topicAdmin interface {
	GetTopic(ctx context.Context, req *pubsubpb.GetTopicRequest, opts ...gax.CallOption) (*pubsubpb.Topic, error)
	CreateTopic(ctx context.Context, req *pubsubpb.Topic, opts ...gax.CallOption) (*pubsubpb.Topic, error)
}

type subscriptionAdmin interface {
	GetSubscription(ctx context.Context, req *pubsubpb.GetSubscriptionRequest, opts ...gax.CallOption) (*pubsubpb.Subscription, error)
	CreateSubscription(ctx context.Context, req *pubsubpb.Subscription, opts ...gax.CallOption) (*pubsubpb.Subscription, error)
}

type Client struct {
	client    *pubsub.Client
	topics    topicAdmin
	subs      subscriptionAdmin
	projectID string
	cfg       config.PubSubConfig
}

// NewClient opens a Pub/Sub v2 client and checks that every configured topic
// and the analytics subscription exist. With STN_PUBSUB_PROVISION set (local
// emulator, fresh projects) missing resources are created instead.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		topics:    psClient.TopicAdminClient,
		subs:      psClient.SubscriptionAdminClient,
		projectID: projectID,
		cfg:       cfg,
	}
	created, err := c.reconcile(ctx, cfg.Provision)
	if err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"topics":        strings.Join(topicNames(cfg), ","),
			"subscriptions": strings.Join(subscriptionNames(cfg), ","),
			"created":       strings.Join(created, ","),
		}), "pubsub client initialized")
	}
	return c, nil
}

// reconcile walks topics before subscriptions since a subscription create
// needs its topic. It returns the resources it had to create.
func (c *Client) reconcile(ctx context.Context, provision bool) ([]string, error) {
	topics := topicNames(c.cfg)
	if len(topics) == 0 {
		return nil, errNoTopics
	}
	subs := subscriptionNames(c.cfg)
	if len(subs) == 0 {
		return nil, errNoSubscriptions
	}

	var created []string
	for _, name := range topics {
		full := c.topicResourceName(name)
		_, err := c.topics.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
		switch {
		case err == nil:
			continue
		case status.Code(err) != codes.NotFound:
			return created, fmt.Errorf("checking topic %q: %w", name, err)
		case !provision:
			return created, fmt.Errorf("topic %q does not exist", name)
		}
		if _, err := c.topics.CreateTopic(ctx, &pubsubpb.Topic{Name: full}); err != nil && status.Code(err) != codes.AlreadyExists {
			return created, fmt.Errorf("creating topic %q: %w", name, err)
		}
		created = append(created, full)
	}

	for _, name := range subs {
		full := c.subscriptionResourceName(name)
		_, err := c.subs.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full})
		switch {
		case err == nil:
			continue
		case status.Code(err) != codes.NotFound:
			return created, fmt.Errorf("checking subscription %q: %w", name, err)
		case !provision:
			return created, fmt.Errorf("subscription %q does not exist", name)
		}
		_, err = c.subs.CreateSubscription(ctx, &pubsubpb.Subscription{
			Name:                  full,
			Topic:                 c.topicResourceName(c.cfg.AnalyticsTopic),
			AckDeadlineSeconds:    analyticsAckDeadlineSeconds,
			EnableMessageOrdering: true,
		})
		if err != nil && status.Code(err) != codes.AlreadyExists {
			return created, fmt.Errorf("creating subscription %q: %w", name, err)
		}
		created = append(created, full)
	}
	return created, nil
}

func topicNames(cfg config.PubSubConfig) []string {
	return uniqueNames(cfg.ScanEventsTopic, cfg.PickListTopic, cfg.AnalyticsTopic)
}

func subscriptionNames(cfg config.PubSubConfig) []string {
	return uniqueNames(cfg.AnalyticsSubscription)
}

func uniqueNames(values ...string) []string {
	names := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		names = append(names, v)
	}
	return names
}

// Subscription returns a Subscriber for a subscription ID or full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if full := c.subscriptionResourceName(name); full != "" && c.client != nil {
		return c.client.Subscriber(full)
	}
	return nil
}

// AnalyticsSubscription is the subscriber the analytics worker drains.
func (c *Client) AnalyticsSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscription(c.cfg.AnalyticsSubscription)
}

func (c *Client) Publisher(name string) *pubsub.Publisher {
	if full := c.topicResourceName(name); full != "" && c.client != nil {
		return c.client.Publisher(full)
	}
	return nil
}

// Ping re-checks the configured resources without creating anything.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.topics == nil || c.subs == nil {
		return errNotInitialized
	}
	_, err := c.reconcile(ctx, false)
	return err
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) subscriptionResourceName(name string) string {
	if c == nil {
		return ""
	}
	return resourceName(c.projectID, "subscriptions", name)
}

func (c *Client) topicResourceName(name string) string {
	if c == nil {
		return ""
	}
	return resourceName(c.projectID, "topics", name)
}

// resourceName expands a short ID to projects/<project>/<kind>/<id>; full
// resource names pass through.
func resourceName(projectID, kind, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+kind+"/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return "projects/" + p + "/" + kind + "/" + n
}
