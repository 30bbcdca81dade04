package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const metadataCheckTimeout = 10 * time.Second

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// TableSpec describes a fact table owned by this service. Tables are
// partitioned by day on PartitionField and clustered by ClusterBy.
type TableSpec struct {
	Name           string
	Schema         bigquery.Schema
	PartitionField string
	ClusterBy      []string
}

// Client wraps one dataset of the configured project.
type Client struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	logg    *logger.Logger

	mu     sync.RWMutex
	tables []string
}

// NewClient connects and checks that the dataset exists. Tables are checked
// separately through EnsureTables.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	c := &Client{client: bqClient, dataset: bqClient.Dataset(datasetID), logg: logg}
	if err := c.checkDataset(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	default:
		return nil
	}
}

func (c *Client) checkDataset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()
	if _, err := c.dataset.Metadata(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
	}
	return nil
}

// EnsureTables verifies each fact table. Missing tables are created when
// create is set, otherwise they are an error. Checked tables join the Ping set.
func (c *Client) EnsureTables(ctx context.Context, create bool, specs ...TableSpec) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return errTableNameRequired
		}
		table := c.dataset.Table(name)
		_, err := table.Metadata(ctx)
		switch {
		case err == nil:
		case isNotFound(err) && create:
			if err := table.Create(ctx, tableMetadata(spec)); err != nil {
				return fmt.Errorf("creating table %q: %w", name, err)
			}
			if c.logg != nil {
				c.logg.Info(c.logg.WithField(ctx, "table", name), "bigquery fact table created")
			}
		case isNotFound(err):
			return fmt.Errorf("table %q does not exist", name)
		default:
			return fmt.Errorf("checking table %q: %w", name, err)
		}
		c.track(name)
	}
	return nil
}

func tableMetadata(spec TableSpec) *bigquery.TableMetadata {
	meta := &bigquery.TableMetadata{Schema: spec.Schema}
	if spec.PartitionField != "" {
		meta.TimePartitioning = &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: spec.PartitionField,
		}
	}
	if len(spec.ClusterBy) > 0 {
		meta.Clustering = &bigquery.Clustering{Fields: spec.ClusterBy}
	}
	return meta
}

func (c *Client) track(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.tables {
		if existing == name {
			return
		}
	}
	c.tables = append(c.tables, name)
}

// Ping checks the dataset and every table EnsureTables has seen.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	if err := c.checkDataset(ctx); err != nil {
		return err
	}
	c.mu.RLock()
	tables := append([]string(nil), c.tables...)
	c.mu.RUnlock()
	for _, name := range tables {
		if _, err := c.dataset.Table(name).Metadata(ctx); err != nil {
			return fmt.Errorf("checking table %q: %w", name, err)
		}
	}
	return nil
}

// InsertRows streams rows into table.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errTableNameRequired
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, rows)
}

// Query runs parameterised SQL.
func (c *Client) Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	if c == nil || c.client == nil {
		return nil, errClientNotInitialized
	}
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("sql query is required")
	}
	q := c.client.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
