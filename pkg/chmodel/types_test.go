package chmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsShareBitPattern(t *testing.T) {
	assert.Equal(t, NoNID, NoEID)
	assert.Equal(t, NoEID, NoLvl)
	assert.Equal(t, NoLvl, NoDist)
}

func TestEdgeTypeNegate(t *testing.T) {
	assert.Equal(t, In, Out.Negate())
	assert.Equal(t, Out, In.Negate())
}

func TestIsShortcut(t *testing.T) {
	plain := Edge{CenterNode: NoNID}
	assert.False(t, plain.IsShortcut())

	shortcut := Edge{CenterNode: 3}
	assert.True(t, shortcut.IsShortcut())
}

func TestEqualEndpoints(t *testing.T) {
	a := Edge{Src: 1, Tgt: 2}
	b := Edge{Src: 1, Tgt: 2, Dist: 999}
	c := Edge{Src: 2, Tgt: 1}
	assert.True(t, EqualEndpoints(a, b))
	assert.False(t, EqualEndpoints(a, c))
}

func TestOtherNode(t *testing.T) {
	e := Edge{Src: 1, Tgt: 2}
	assert.Equal(t, NodeID(2), OtherNode(e, Out))
	assert.Equal(t, NodeID(1), OtherNode(e, In))
}

func TestConcatSumsDistanceAndTimeAndClearsProvenance(t *testing.T) {
	e1 := Edge{Src: 1, Tgt: 2, Dist: 100, Time: 40, ChildEdge1: 5, CenterNode: 9}
	e2 := Edge{Src: 2, Tgt: 3, Dist: 150, Time: 60}

	c := Concat(e1, e2)
	assert.Equal(t, NodeID(1), c.Src)
	assert.Equal(t, NodeID(3), c.Tgt)
	assert.Equal(t, uint32(250), c.Dist)
	assert.Equal(t, uint32(100), c.Time)
	assert.Equal(t, NoEID, c.ChildEdge1)
	assert.Equal(t, NoEID, c.ChildEdge2)
	assert.Equal(t, NoNID, c.CenterNode)
}

func TestConcatSaturatesDistanceAndTime(t *testing.T) {
	e1 := Edge{Src: 1, Tgt: 2, Dist: NoDist - 1, Time: math.MaxUint32 - 1}
	e2 := Edge{Src: 2, Tgt: 3, Dist: 10, Time: 10}
	c := Concat(e1, e2)
	assert.Equal(t, uint32(NoDist), c.Dist)
	assert.Equal(t, uint32(math.MaxUint32), c.Time)
}

func TestConcatPanicsOnMismatchedEndpoint(t *testing.T) {
	e1 := Edge{Src: 1, Tgt: 2}
	e2 := Edge{Src: 3, Tgt: 4}
	assert.Panics(t, func() { Concat(e1, e2) })
}

func TestOutEdgeSortOrdersBySrcThenTgt(t *testing.T) {
	a := Edge{Src: 1, Tgt: 5}
	b := Edge{Src: 1, Tgt: 9}
	c := Edge{Src: 2, Tgt: 0}
	assert.True(t, OutEdgeSort(a, b))
	assert.False(t, OutEdgeSort(b, a))
	assert.True(t, OutEdgeSort(b, c))
}

func TestInEdgeSortOrdersByTgtThenSrc(t *testing.T) {
	a := Edge{Src: 5, Tgt: 1}
	b := Edge{Src: 9, Tgt: 1}
	c := Edge{Src: 0, Tgt: 2}
	assert.True(t, InEdgeSort(a, b))
	assert.True(t, InEdgeSort(b, c))
}

func TestCompareOutMatchesOutEdgeSort(t *testing.T) {
	a := Edge{Src: 1, Tgt: 5}
	b := Edge{Src: 1, Tgt: 9}
	assert.Equal(t, -1, CompareOut(a, b))
	assert.Equal(t, 1, CompareOut(b, a))
	assert.Equal(t, 0, CompareOut(a, a))
}
