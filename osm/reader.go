package osm

import (
	"context"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"os"
	"strings"
	"time"
)

// OsmDataHandler receives the nodes of an OSM file. Ways and relations carry no own coordinates and are skipped by
// the reader.
type OsmDataHandler interface {
	Name() string
	Init() error
	HandleNode(node *osm.Node) error
	Done() error
}

type OsmReader struct {
	nodeCount int
}

func NewOsmReader() *OsmReader {
	return &OsmReader{}
}

// NodeCount returns the number of nodes processed by the last call of Read.
func (r *OsmReader) NodeCount() int {
	return r.nodeCount
}

// Read streams all nodes of the given .osm or .osm.pbf file through the handlers.
func (r *OsmReader) Read(filename string, handlers ...OsmDataHandler) error {
	file, scanner, err := getScanner(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	sigolo.Infof("Start processing OSM data file %s", filename)
	importStartTime := time.Now()
	r.nodeCount = 0

	for _, handler := range handlers {
		err = handler.Init()
		if err != nil {
			scanner.Close()
			return errors.Wrapf(err, "Initializing OSM data handler '%s' failed", handler.Name())
		}
	}

	sigolo.Debug("Start processing nodes")
	for scanner.Scan() {
		osmNode, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}

		r.nodeCount++
		for _, handler := range handlers {
			err = handler.HandleNode(osmNode)
			if err != nil {
				scanner.Close()
				return errors.Wrapf(err, "Handling node %d using handler '%s' failed", osmNode.ID, handler.Name())
			}
		}
	}

	if scanner.Err() != nil {
		scanner.Close()
		return errors.Wrapf(scanner.Err(), "Unable to read OSM data from file %s", filename)
	}

	err = scanner.Close()
	if err != nil {
		return errors.Wrapf(err, "Unable to close OSM scanner")
	}

	for _, handler := range handlers {
		err = handler.Done()
		if err != nil {
			return errors.Wrapf(err, "Calling done function on handler '%s' failed", handler.Name())
		}
	}

	importDuration := time.Since(importStartTime)
	sigolo.Infof("Done processing %d OSM nodes in %s", r.nodeCount, importDuration)

	return nil
}

func getScanner(inputFile string) (*os.File, osm.Scanner, error) {
	if !strings.HasSuffix(inputFile, ".osm") && !strings.HasSuffix(inputFile, ".pbf") {
		return nil, nil, errors.Errorf("Input file %s must be an .osm or .pbf file", inputFile)
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Unable to open OSM input file %s", inputFile)
	}

	var scanner osm.Scanner
	if strings.HasSuffix(inputFile, ".osm") {
		scanner = osmxml.New(context.Background(), f)
	} else {
		scanner = osmpbf.New(context.Background(), f, 1)
	}
	return f, scanner, nil
}
