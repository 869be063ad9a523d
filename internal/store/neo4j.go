package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/plateiq/pkg/models"
)

// Neo4jConfig represents the graph store configuration.
type Neo4jConfig struct {
	URI         string        `yaml:"uri"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	MaxPoolSize int           `yaml:"max_pool_size"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
}

// DefaultNeo4jConfig returns default graph store configuration.
func DefaultNeo4jConfig() Neo4jConfig {
	return Neo4jConfig{
		URI:         "bolt://localhost:7687",
		Username:    "neo4j",
		MaxPoolSize: 50,
		ConnTimeout: 10 * time.Second,
	}
}

// Neo4jStore is a graph-backed ProfileStore. Customers are nodes; referral
// relationships between them are REFERRED edges, which lets referral counts
// come from the graph instead of a maintained counter.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	config Neo4jConfig
}

// NewNeo4jStore creates a Neo4j profile store and verifies connectivity.
func NewNeo4jStore(config Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		config.URI,
		neo4j.BasicAuth(config.Username, config.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = config.MaxPoolSize
			c.ConnectionAcquisitionTimeout = config.ConnTimeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	store := &Neo4jStore{driver: driver, config: config}
	if err := store.initializeSchema(ctx); err != nil {
		log.Printf("Warning: failed to initialize schema: %v", err)
	}
	return store, nil
}

func (s *Neo4jStore) initializeSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		"CREATE CONSTRAINT customer_id IF NOT EXISTS FOR (c:Customer) REQUIRE c.id IS UNIQUE", nil)
	if err != nil {
		return fmt.Errorf("failed to create customer constraint: %w", err)
	}
	return nil
}

// Get returns the latest snapshot for the id, or ErrNotFound.
func (s *Neo4jStore) Get(ctx context.Context, id string) (models.CustomerProfile, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		"MATCH (c:Customer {id: $id}) RETURN c.snapshot AS snapshot",
		map[string]any{"id": id})
	if err != nil {
		return models.CustomerProfile{}, fmt.Errorf("failed to query customer %s: %w", id, err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return models.CustomerProfile{}, ErrNotFound
	}
	return decodeSnapshot(record)
}

// Put stores the snapshot as a Customer node property.
func (s *Neo4jStore) Put(ctx context.Context, profile models.CustomerProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile %s: %w", profile.ID, err)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.Run(ctx,
		`MERGE (c:Customer {id: $id})
		 SET c.snapshot = $snapshot, c.engagement = $engagement,
		     c.risk_level = $risk, c.updated_at = $updated`,
		map[string]any{
			"id":         profile.ID,
			"snapshot":   string(data),
			"engagement": profile.Engagement.Score,
			"risk":       string(profile.Engagement.RiskLevel),
			"updated":    profile.UpdatedAt.Format(time.RFC3339),
		})
	if err != nil {
		return fmt.Errorf("failed to store profile %s: %w", profile.ID, err)
	}
	return nil
}

// List returns all stored snapshots.
func (s *Neo4jStore) List(ctx context.Context) ([]models.CustomerProfile, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		"MATCH (c:Customer) RETURN c.snapshot AS snapshot ORDER BY c.id", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	var out []models.CustomerProfile
	for result.Next(ctx) {
		p, err := decodeSnapshot(result.Record())
		if err != nil {
			log.Printf("Skipping undecodable customer snapshot: %v", err)
			continue
		}
		out = append(out, p)
	}
	return out, result.Err()
}

// RecordReferral creates a REFERRED edge between two customers.
func (s *Neo4jStore) RecordReferral(ctx context.Context, referrerID, referredID string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MATCH (a:Customer {id: $from})
		 MERGE (b:Customer {id: $to})
		 MERGE (a)-[r:REFERRED]->(b)
		 SET r.created_at = $at`,
		map[string]any{
			"from": referrerID,
			"to":   referredID,
			"at":   time.Now().Format(time.RFC3339),
		})
	if err != nil {
		return fmt.Errorf("failed to record referral %s -> %s: %w", referrerID, referredID, err)
	}
	return nil
}

// CountReferrals returns the number of outgoing REFERRED edges for a
// customer.
func (s *Neo4jStore) CountReferrals(ctx context.Context, customerID string) (int, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		"MATCH (c:Customer {id: $id})-[:REFERRED]->() RETURN count(*) AS n",
		map[string]any{"id": customerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals for %s: %w", customerID, err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, nil
	}
	n, _ := record.Get("n")
	count, ok := n.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected referral count type %T", n)
	}
	return int(count), nil
}

// Close releases the driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func decodeSnapshot(record *neo4j.Record) (models.CustomerProfile, error) {
	raw, ok := record.Get("snapshot")
	if !ok {
		return models.CustomerProfile{}, fmt.Errorf("record has no snapshot")
	}
	text, ok := raw.(string)
	if !ok {
		return models.CustomerProfile{}, fmt.Errorf("unexpected snapshot type %T", raw)
	}

	var p models.CustomerProfile
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return models.CustomerProfile{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return p, nil
}
