package driver

import "github.com/agenthands/profitgraph/internal/core/model"

const (
	// SyncCaseQuery upserts the Video/Strategy/Research triangle for one case.
	SyncCaseQuery = `
		MERGE (v:Video {id: $vid})
		SET v.last_processed = datetime()
		MERGE (s:Strategy {id: $strategy_id})
		SET s.content = $strategy
		MERGE (r:Research {id: $research_id})
		SET r.content = $research
		MERGE (v)-[:YIELDS_STRATEGY]->(s)
		MERGE (s)-[:BASED_ON_RESEARCH]->(r)
	`

	// MergeEntitiesQuery reuses Entity nodes by name and links them from the
	// Strategy. detail lives on the MENTIONS edge.
	MergeEntitiesQuery = `
		MATCH (s:Strategy {id: $strategy_id})
		UNWIND $batch AS item
		MERGE (e:Entity {name: item.name})
		SET e.type = item.type
		MERGE (s)-[m:MENTIONS]->(e)
		SET m.detail = item.detail
	`

	UnrefinedStrategiesQuery = `
		MATCH (s:Strategy)
		WHERE NOT (s)-[:REFINED_BY]->(:RefinerLog)
		RETURN s.id AS id, s.content AS content
		ORDER BY s.id
		LIMIT $limit
	`

	StampRefinedQuery = `
		MATCH (s:Strategy {id: $strategy_id})
		CREATE (l:RefinerLog {id: $log_id, timestamp: datetime()})
		MERGE (s)-[:REFINED_BY]->(l)
	`

	// EntityRelationsQuery lists every refined relationship between entities.
	EntityRelationsQuery = `
		MATCH (a:Entity)-[r:INTEGRATES_WITH|RUNS_ON|COMPETES_WITH|MITIGATES]->(b:Entity)
		RETURN a.name AS source, a.type AS source_type, b.name AS target, b.type AS target_type, type(r) AS rel
		ORDER BY source, target
	`

	CheckQuery = `
		MATCH (v:Video)-->(s:Strategy)
		RETURN v.id AS id, substring(s.content, 0, 50) AS preview
		LIMIT $limit
	`
)

// RelationQueries holds one pre-declared statement per relationship type.
// Entities merged here get no type.
var RelationQueries = map[model.RelationType]string{
	model.IntegratesWith: relationQuery("INTEGRATES_WITH"),
	model.RunsOn:         relationQuery("RUNS_ON"),
	model.CompetesWith:   relationQuery("COMPETES_WITH"),
	model.Mitigates:      relationQuery("MITIGATES"),
}

func relationQuery(rel string) string {
	return `
		MERGE (a:Entity {name: $source})
		MERGE (b:Entity {name: $target})
		MERGE (a)-[:` + rel + `]->(b)
	`
}

var SchemaQueries = []string{
	"CREATE CONSTRAINT entity_name_unique IF NOT EXISTS FOR (n:Entity) REQUIRE n.name IS UNIQUE",
	"CREATE INDEX video_id IF NOT EXISTS FOR (v:Video) ON (v.id)",
	"CREATE INDEX strategy_id IF NOT EXISTS FOR (s:Strategy) ON (s.id)",
	"CREATE INDEX research_id IF NOT EXISTS FOR (r:Research) ON (r.id)",
	"CREATE INDEX entity_type IF NOT EXISTS FOR (e:Entity) ON (e.type)",
}
