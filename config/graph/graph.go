package graph

import (
	"context"
	"fmt"
	"log"

	"ClinicLink360/util"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Store wraps the Neo4j driver for the clinical graph. It is constructed
// once at startup, injected into the services, and closed at shutdown.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

/*
* Open the driver, verify connectivity and bootstrap the schema:
* a uniqueness constraint on id for every entity label. Counter nodes
* are created lazily on first allocation.
 */
func Connect(ctx context.Context) (*Store, error) {
	uri := util.GetEnv("NEO4J_URI", "bolt://localhost:7687")
	user := util.GetEnv("NEO4J_USER", "neo4j")
	password := util.GetEnv("NEO4J_PASSWORD", "")
	database := util.GetEnv("NEO4J_DATABASE", "neo4j")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	s := &Store{driver: driver, database: database}
	if err := s.ensureConstraints(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	log.Println("Connected to Neo4j database:", database)
	return s, nil
}

func (s *Store) Close(ctx context.Context) {
	if err := s.driver.Close(ctx); err != nil {
		log.Println("Error closing neo4j driver:", err)
	}
}

func constraintStatements() []string {
	labels := []string{
		util.LabelClinic, util.LabelDepartment, util.LabelDoctor, util.LabelPatient,
		util.LabelAppointment, util.LabelObservation, util.LabelDiagnosis, util.LabelMedicalFile,
	}
	stmts := make([]string, 0, len(labels)+1)
	for _, label := range labels {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", label))
	}
	// Counter rows are merged lazily per label. The constraint turns a
	// lost first-use MERGE race into a retryable conflict instead of a
	// second Counter row for the same label.
	stmts = append(stmts,
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Counter) REQUIRE c.entity_type IS UNIQUE")
	return stmts
}

func (s *Store) ensureConstraints(ctx context.Context) error {
	for _, stmt := range constraintStatements() {
		if _, err := s.ExecWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("creating constraint: %w", err)
		}
	}
	return nil
}

func (s *Store) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any) ([]map[string]any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	for result.Next(ctx) {
		rows = append(rows, result.Record().AsMap())
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ExecWrite runs a single write statement in its own transaction and
// returns the produced records.
func (s *Store) ExecWrite(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return s.run(ctx, neo4j.AccessModeWrite, cypher, params)
}

// ExecRead runs a read statement against a read session.
func (s *Store) ExecRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return s.run(ctx, neo4j.AccessModeRead, cypher, params)
}

const incrementCounterCypher = `
MERGE (c:Counter {entity_type: $type})
ON CREATE SET c.next_value = 1
WITH c
SET c.next_value = c.next_value + 1
RETURN c.next_value - 1 AS id`

/*
* Atomic read-increment-write of the per-label counter: a single Cypher
* statement in a single transaction, never a read followed by a separate
* write. A lost race surfaces as ErrAllocationConflict for the caller
* to retry; anything else is passed through.
 */
func (s *Store) IncrementCounter(ctx context.Context, label string) (int64, error) {
	rows, err := s.ExecWrite(ctx, incrementCounterCypher, map[string]any{"type": label})
	if err != nil {
		if neo4j.IsRetryable(err) {
			return 0, fmt.Errorf("counter %s: %w", label, util.ErrAllocationConflict)
		}
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("counter %s: %w", label, util.ErrAllocationConflict)
	}
	id, ok := rows[0]["id"].(int64)
	if !ok {
		return 0, fmt.Errorf("counter %s returned unexpected value %v", label, rows[0]["id"])
	}
	return id, nil
}
