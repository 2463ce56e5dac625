// Command chbuild drives pkg/ingest, pkg/chgraph and pkg/offtp end to
// end against a small fixed fixture graph, writing a complete OffTP
// file. It exists to give the library packages one realistic caller; it
// is not a general-purpose map importer, and the contraction rounds it
// runs are hand-picked for this one fixture rather than produced by a
// real contraction-ordering algorithm.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lintang-b-s/chofftp/pkg/buildstat"
	"github.com/lintang-b-s/chofftp/pkg/chgraph"
	"github.com/lintang-b-s/chofftp/pkg/chmodel"
	"github.com/lintang-b-s/chofftp/pkg/ingest"
	"github.com/lintang-b-s/chofftp/pkg/offtp"
)

var outFile = flag.String("o", "fixture.offtp", "path to write the OffTP graph file to")

func main() {
	flag.Parse()

	// store.Init/Restructure and offtp.WriteGraph treat invariant
	// violations as programming errors and panic; this is the one place
	// that turns such a panic into a clean diagnostic and exit code
	// instead of a raw stack trace.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("chbuild: fatal: %v", r)
			os.Exit(1)
		}
	}()

	run()
}

func run() {
	reg := prometheus.NewRegistry()
	stat := buildstat.NewRecorder(reg)

	reader := fixtureReader()
	data, err := ingest.Load(reader)
	if err != nil {
		log.Fatalf("chbuild: loading fixture: %v", err)
	}

	store := chgraph.NewStore()
	store.SetRecorder(stat)
	store.Init(data)

	contractFixture(store)

	graph := store.ExportData()
	log.Printf("chbuild: exporting %d nodes, %d edges (including superseded)", len(graph.Nodes), len(graph.Edges))

	f, err := os.Create(*outFile)
	if err != nil {
		log.Fatalf("chbuild: creating %s: %v", *outFile, err)
	}
	defer f.Close()

	if err := offtp.WriteGraph(f, graph.Nodes, graph.Levels, graph.Edges, stat); err != nil {
		log.Fatalf("chbuild: writing OffTP file: %v", err)
	}
	log.Printf("chbuild: wrote %s", *outFile)
}

// fixtureReader is a 5-node line A-B-C-D-E with bidirectional 100m hops,
// loosely tracing a short stretch of road near Jakarta.
func fixtureReader() ingest.MemoryReader {
	nodes := []chmodel.Node{
		{Lat: -6.2000, Lon: 106.8000}, // A = 0
		{Lat: -6.2010, Lon: 106.8010}, // B = 1
		{Lat: -6.2020, Lon: 106.8020}, // C = 2
		{Lat: -6.2030, Lon: 106.8030}, // D = 3
		{Lat: -6.2040, Lon: 106.8040}, // E = 4
	}

	link := func(a, b chmodel.NodeID) []chmodel.Edge {
		return []chmodel.Edge{
			{Src: a, Tgt: b, Dist: 100, RoadType: 12, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
			{Src: b, Tgt: a, Dist: 100, RoadType: 12, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
		}
	}
	var edges []chmodel.Edge
	edges = append(edges, link(0, 1)...)
	edges = append(edges, link(1, 2)...)
	edges = append(edges, link(2, 3)...)
	edges = append(edges, link(3, 4)...)

	return ingest.MemoryReader{NodeList: nodes, EdgeList: edges}
}

// contractFixture runs four hand-picked rounds that fully contract the
// fixture graph: first the two interior nodes adjacent to an endpoint
// (B, D), then the remaining middle node (C), then each surviving
// endpoint in its own round (A, then E — contracting them together
// would give the final A<->E shortcut equal ranks at both ends, which
// violates the rule that a live edge always connects two different
// levels). Each round's shortcuts are computed directly from the
// fixture's known topology rather than a witness search, since the
// ordering logic itself belongs to an upstream contractor this module
// doesn't implement.
func contractFixture(store *chgraph.Store) {
	const n = 5
	A, B, C, D, E := chmodel.NodeID(0), chmodel.NodeID(1), chmodel.NodeID(2), chmodel.NodeID(3), chmodel.NodeID(4)

	mask := func(ids ...chmodel.NodeID) []bool {
		m := make([]bool, n)
		for _, id := range ids {
			m[id] = true
		}
		return m
	}

	// Round 1: contract B and D, bypassing them with shortcuts A<->C and
	// C<->E. Each shortcut's Dist and Time come from chmodel.Concat
	// summing its two live children; only the provenance fields need
	// filling in afterward.
	abID, baID := edgeID(store, A, B), edgeID(store, B, A)
	bcID, cbID := edgeID(store, B, C), edgeID(store, C, B)
	cdID, dcID := edgeID(store, C, D), edgeID(store, D, C)
	deID, edID := edgeID(store, D, E), edgeID(store, E, D)

	ac := chmodel.Concat(store.Edge(abID), store.Edge(bcID))
	ac.ChildEdge1, ac.ChildEdge2, ac.CenterNode = abID, bcID, B
	ca := chmodel.Concat(store.Edge(cbID), store.Edge(baID))
	ca.ChildEdge1, ca.ChildEdge2, ca.CenterNode = cbID, baID, B
	ce := chmodel.Concat(store.Edge(cdID), store.Edge(deID))
	ce.ChildEdge1, ce.ChildEdge2, ce.CenterNode = cdID, deID, D
	ec := chmodel.Concat(store.Edge(edID), store.Edge(dcID))
	ec.ChildEdge1, ec.ChildEdge2, ec.CenterNode = edID, dcID, D

	store.Restructure([]chmodel.NodeID{B, D}, mask(B, D), []chmodel.Edge{ac, ca, ce, ec})

	// Round 2: contract C, bypassing it with a shortcut A<->E.
	acID, caID := edgeID(store, A, C), edgeID(store, C, A)
	ceID, ecID := edgeID(store, C, E), edgeID(store, E, C)

	ae := chmodel.Concat(store.Edge(acID), store.Edge(ceID))
	ae.ChildEdge1, ae.ChildEdge2, ae.CenterNode = acID, ceID, C
	ea := chmodel.Concat(store.Edge(ecID), store.Edge(caID))
	ea.ChildEdge1, ea.ChildEdge2, ea.CenterNode = ecID, caID, C

	store.Restructure([]chmodel.NodeID{C}, mask(C), []chmodel.Edge{ae, ea})

	// Rounds 3 and 4: contract the two remaining endpoints one at a time.
	// Each is left with a single neighbor (the other endpoint), so
	// neither round needs a bypassing shortcut.
	store.Restructure([]chmodel.NodeID{A}, mask(A), nil)
	store.Restructure([]chmodel.NodeID{E}, mask(E), nil)
}

// edgeID finds the live EdgeID of the edge src->tgt, assuming exactly one
// exists (true for this fixture, where no two nodes share more than one
// direct link).
func edgeID(store *chgraph.Store, src, tgt chmodel.NodeID) chmodel.EdgeID {
	for _, id := range store.NodeEdges(src, chmodel.Out) {
		if store.Edge(id).Tgt == tgt {
			return id
		}
	}
	log.Fatalf("chbuild: no live edge %d->%d", src, tgt)
	return chmodel.NoEID
}
