package community

import (
	"context"
	"errors"

	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/model"
	"github.com/agenthands/profitgraph/internal/driver"
	"github.com/agenthands/profitgraph/internal/logger"
)

const stage = "clusters"

var errNoDriver = errors.New("graph store is not configured")

// Clusterer reads the refined relationship graph and groups entities.
type Clusterer struct {
	Driver   driver.GraphDriver
	Detector Detector
	Log      *logger.Logger
}

func NewClusterer(d driver.GraphDriver, log *logger.Logger) *Clusterer {
	return &Clusterer{Driver: d, Detector: NewLabelPropagationDetector(), Log: log}
}

// Clusters loads every typed Entity relationship and runs the detector.
// Entities without refined relationships never appear.
func (c *Clusterer) Clusters(ctx context.Context) ([]Cluster, error) {
	if c.Driver == nil {
		return nil, common.Wrap(stage, common.KindConfig, errNoDriver)
	}

	res, err := c.Driver.ExecuteQuery(ctx, driver.EntityRelationsQuery, nil)
	if err != nil {
		return nil, common.Wrap(stage, common.KindGraph, err)
	}

	seen := make(map[string]bool)
	var entities []model.Entity
	var links []model.Triple
	add := func(name, typ string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		entities = append(entities, model.Entity{Name: name, Type: typ})
	}

	for _, rec := range res.Records {
		source := stringField(rec.Get("source"))
		target := stringField(rec.Get("target"))
		add(source, stringField(rec.Get("source_type")))
		add(target, stringField(rec.Get("target_type")))
		links = append(links, model.Triple{
			Source: source,
			Target: target,
			Rel:    stringField(rec.Get("rel")),
		})
	}

	clusters, err := c.Detector.Detect(entities, links)
	if err != nil {
		return nil, err
	}
	c.Log.Info("detected entity clusters", "entities", len(entities), "relationships", len(links), "clusters", len(clusters))
	return clusters, nil
}

func stringField(v any, _ bool) string {
	s, _ := v.(string)
	return s
}
