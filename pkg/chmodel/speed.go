package chmodel

import "math"

// defaultSpeed is the road-type -> km/h table used whenever an edge
// doesn't carry its own speed. RoadType 0 (unset) and any value outside
// the table fall through to the 50 km/h default.
func defaultSpeed(roadType uint8) int32 {
	switch roadType {
	case 1:
		return 130 // motorway
	case 2:
		return 100 // motorway link
	case 3:
		return 70 // primary
	case 4:
		return 70 // primary link
	case 5:
		return 65 // secondary
	case 6:
		return 65 // secondary link
	case 7:
		return 60 // tertiary
	case 8:
		return 60 // tertiary link
	case 9:
		return 80 // trunk
	case 10:
		return 80 // trunk link
	case 11:
		return 30 // unclassified
	case 12:
		return 50 // residential
	case 13:
		return 30 // living street
	case 14:
		return 30 // road
	case 15:
		return 30 // service
	case 16:
		return 30 // turning circle
	default:
		return 50
	}
}

// CalcTime derives the OffTP time metric for a leaf edge: dist*1300/speed,
// saturating at math.MaxUint32 on overflow. Units are 9/325 seconds.
// speed <= 0 means "derive from roadType" via defaultSpeed. Shortcuts
// don't call this directly; their Time comes from Concat summing their
// children's already-derived Time.
func CalcTime(dist uint32, roadType uint8, speed int32) uint32 {
	if speed <= 0 {
		speed = defaultSpeed(roadType)
	}
	result := uint64(dist) * 1300 / uint64(speed)
	if result > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(result)
}
