package pubsub

import (
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		name    string
		project string
		kind    string
		input   string
		want    string
	}{
		{name: "short id", project: "proj", kind: "topics", input: " scans ", want: "projects/proj/topics/scans"},
		{name: "full name", project: "other", kind: "subscriptions", input: "projects/proj/subscriptions/a", want: "projects/proj/subscriptions/a"},
		{name: "wrong kind expands", project: "proj", kind: "topics", input: "projects/proj/subscriptions/a", want: "projects/proj/topics/projects/proj/subscriptions/a"},
		{name: "blank", project: "proj", kind: "topics", input: "  ", want: ""},
		{name: "no project", project: "", kind: "topics", input: "scans", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resourceName(tc.project, tc.kind, tc.input); got != tc.want {
				t.Fatalf("resourceName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTopicNamesDeduplicates(t *testing.T) {
	cfg := config.PubSubConfig{
		ScanEventsTopic: "events",
		PickListTopic:   "events",
		AnalyticsTopic:  "analytics",
	}
	names := topicNames(cfg)
	if len(names) != 2 || names[0] != "events" || names[1] != "analytics" {
		t.Fatalf("unexpected topics %v", names)
	}
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{}); len(names) != 0 {
		t.Fatalf("expected no subscriptions, got %v", names)
	}
	names := subscriptionNames(config.PubSubConfig{AnalyticsSubscription: " worker "})
	if len(names) != 1 || names[0] != "worker" {
		t.Fatalf("unexpected subscriptions %v", names)
	}
}

func TestNilClientAccessors(t *testing.T) {
	var c *Client
	if c.Publisher("scans") != nil {
		t.Fatal("expected nil publisher")
	}
	if c.Subscription("worker") != nil {
		t.Fatal("expected nil subscriber")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type fakeAdmin struct {
	topics  map[string]bool
	subs    map[string]*pubsubpb.Subscription
	created []string
}

func newFakeAdmin(existing ...string) *fakeAdmin {
	f := &fakeAdmin{topics: map[string]bool{}, subs: map[string]*pubsubpb.Subscription{}}
	for _, name := range existing {
		if strings.Contains(name, "/subscriptions/") {
			f.subs[name] = &pubsubpb.Subscription{Name: name}
		} else {
			f.topics[name] = true
		}
	}
	return f
}

func (f *fakeAdmin) GetTopic(_ context.Context, req *pubsubpb.GetTopicRequest, _ ...gax.CallOption) (*pubsubpb.Topic, error) {
	if !f.topics[req.GetTopic()] {
		return nil, status.Error(codes.NotFound, "no topic")
	}
	return &pubsubpb.Topic{Name: req.GetTopic()}, nil
}

func (f *fakeAdmin) CreateTopic(_ context.Context, req *pubsubpb.Topic, _ ...gax.CallOption) (*pubsubpb.Topic, error) {
	f.topics[req.GetName()] = true
	f.created = append(f.created, req.GetName())
	return req, nil
}

func (f *fakeAdmin) GetSubscription(_ context.Context, req *pubsubpb.GetSubscriptionRequest, _ ...gax.CallOption) (*pubsubpb.Subscription, error) {
	sub, ok := f.subs[req.GetSubscription()]
	if !ok {
		return nil, status.Error(codes.NotFound, "no subscription")
	}
	return sub, nil
}

func (f *fakeAdmin) CreateSubscription(_ context.Context, req *pubsubpb.Subscription, _ ...gax.CallOption) (*pubsubpb.Subscription, error) {
	if !f.topics[req.GetTopic()] {
		return nil, status.Error(codes.NotFound, "topic missing")
	}
	f.subs[req.GetName()] = req
	f.created = append(f.created, req.GetName())
	return req, nil
}

func testClient(admin *fakeAdmin) *Client {
	return &Client{
		topics:    admin,
		subs:      admin,
		projectID: "proj",
		cfg: config.PubSubConfig{
			ScanEventsTopic:       "scans",
			PickListTopic:         "pick-lists",
			AnalyticsTopic:        "analytics",
			AnalyticsSubscription: "analytics-worker",
		},
	}
}

func TestPingReportsMissingResources(t *testing.T) {
	admin := newFakeAdmin(
		"projects/proj/topics/scans",
		"projects/proj/topics/pick-lists",
	)
	err := testClient(admin).Ping(context.Background())
	if err == nil || !strings.Contains(err.Error(), `topic "analytics" does not exist`) {
		t.Fatalf("expected missing analytics topic, got %v", err)
	}
	if len(admin.created) != 0 {
		t.Fatalf("ping must not create resources, created %v", admin.created)
	}
}

func TestReconcileProvisionsMissingResources(t *testing.T) {
	admin := newFakeAdmin("projects/proj/topics/scans")
	created, err := testClient(admin).reconcile(context.Background(), true)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	want := []string{
		"projects/proj/topics/pick-lists",
		"projects/proj/topics/analytics",
		"projects/proj/subscriptions/analytics-worker",
	}
	if strings.Join(created, ",") != strings.Join(want, ",") {
		t.Fatalf("created %v, want %v", created, want)
	}
	sub := admin.subs["projects/proj/subscriptions/analytics-worker"]
	if sub.GetTopic() != "projects/proj/topics/analytics" || !sub.GetEnableMessageOrdering() {
		t.Fatalf("unexpected subscription %+v", sub)
	}

	if err := testClient(admin).Ping(context.Background()); err != nil {
		t.Fatalf("ping after provisioning: %v", err)
	}
}

func TestPingPropagatesUnexpectedErrors(t *testing.T) {
	c := testClient(newFakeAdmin())
	c.topics = failingTopics{}
	err := c.Ping(context.Background())
	if err == nil || !strings.Contains(err.Error(), "checking topic") {
		t.Fatalf("expected checking error, got %v", err)
	}
	var nilClient *Client
	if err := nilClient.Ping(context.Background()); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
}

type failingTopics struct{}

func (failingTopics) GetTopic(context.Context, *pubsubpb.GetTopicRequest, ...gax.CallOption) (*pubsubpb.Topic, error) {
	return nil, status.Error(codes.PermissionDenied, "denied")
}

func (failingTopics) CreateTopic(context.Context, *pubsubpb.Topic, ...gax.CallOption) (*pubsubpb.Topic, error) {
	return nil, status.Error(codes.PermissionDenied, "denied")
}
