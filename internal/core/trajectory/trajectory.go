// Package trajectory computes local statistics over agent GPS tracks
// fetched from the API. Points arrive time-ordered; all math is done on
// consecutive deltas.
package trajectory

import (
	"math"
	"time"

	"ecatalog-admin/internal/api"
)

const earthRadiusM = 6371000.0

// Stop is a detected standstill: consecutive points inside StopRadiusM for
// at least StopMinDwell.
type Stop struct {
	Latitude  float64
	Longitude float64
	Start     time.Time
	End       time.Time
}

// Duration returns how long the agent stood still.
func (s Stop) Duration() time.Duration { return s.End.Sub(s.Start) }

// Options tunes stop detection.
type Options struct {
	StopRadiusM  float64
	StopMinDwell time.Duration
}

// DefaultOptions matches the backend's own stop heuristics.
func DefaultOptions() Options {
	return Options{StopRadiusM: 50, StopMinDwell: 5 * time.Minute}
}

// Stats summarizes one trajectory.
type Stats struct {
	Points         int
	TotalDistanceM float64
	Duration       time.Duration
	AvgSpeedKmh    float64
	Stops          []Stop
}

// Haversine returns the great-circle distance in meters between two
// coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Compute walks the point list once and derives distance, duration, average
// speed and stops.
func Compute(points []api.TrajectoryPoint, opts Options) Stats {
	st := Stats{Points: len(points)}
	if len(points) < 2 {
		return st
	}

	times := make([]time.Time, len(points))
	for i, p := range points {
		times[i] = parseTime(p.RecordedAt)
	}

	for i := 1; i < len(points); i++ {
		st.TotalDistanceM += Haversine(
			points[i-1].Latitude, points[i-1].Longitude,
			points[i].Latitude, points[i].Longitude,
		)
	}

	if !times[0].IsZero() && !times[len(times)-1].IsZero() {
		st.Duration = times[len(times)-1].Sub(times[0])
	}
	if st.Duration > 0 {
		st.AvgSpeedKmh = st.TotalDistanceM / 1000 / st.Duration.Hours()
	}

	st.Stops = detectStops(points, times, opts)
	return st
}

// detectStops groups consecutive points that stay within opts.StopRadiusM
// of the group's anchor; a group dwelling at least opts.StopMinDwell is a
// stop.
func detectStops(points []api.TrajectoryPoint, times []time.Time, opts Options) []Stop {
	if opts.StopRadiusM <= 0 {
		return nil
	}
	var stops []Stop
	anchor := 0
	for i := 1; i <= len(points); i++ {
		if i < len(points) {
			d := Haversine(
				points[anchor].Latitude, points[anchor].Longitude,
				points[i].Latitude, points[i].Longitude,
			)
			if d <= opts.StopRadiusM {
				continue
			}
		}
		// group [anchor, i) left the radius (or the track ended)
		if i-1 > anchor && !times[anchor].IsZero() && !times[i-1].IsZero() {
			dwell := times[i-1].Sub(times[anchor])
			if dwell >= opts.StopMinDwell {
				stops = append(stops, Stop{
					Latitude:  points[anchor].Latitude,
					Longitude: points[anchor].Longitude,
					Start:     times[anchor],
					End:       times[i-1],
				})
			}
		}
		anchor = i
	}
	return stops
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
