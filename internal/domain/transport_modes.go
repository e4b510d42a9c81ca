package domain

// TransportMode is how the traveller moves between the stops of a route.
type TransportMode string

const (
	TransportWalk            TransportMode = "walk"
	TransportPublicTransport TransportMode = "public_transport"
	TransportCar             TransportMode = "car"
	TransportMixed           TransportMode = "mixed"
)

// ValidTransportModes returns list of valid transport modes
func ValidTransportModes() []TransportMode {
	return []TransportMode{
		TransportWalk,
		TransportPublicTransport,
		TransportCar,
		TransportMixed,
	}
}

// IsValid checks if transport mode is valid
func (m TransportMode) IsValid() bool {
	for _, valid := range ValidTransportModes() {
		if m == valid {
			return true
		}
	}
	return false
}

// OptimizationMode is the criterion used to re-sequence the points of a day.
type OptimizationMode string

const (
	OptimizeTime     OptimizationMode = "time"
	OptimizeDistance OptimizationMode = "distance"
	OptimizeScenic   OptimizationMode = "scenic"
	OptimizeRating   OptimizationMode = "rating"
)

// ValidOptimizationModes returns list of valid optimization modes
func ValidOptimizationModes() []OptimizationMode {
	return []OptimizationMode{
		OptimizeTime,
		OptimizeDistance,
		OptimizeScenic,
		OptimizeRating,
	}
}

// IsValid checks if optimization mode is valid
func (m OptimizationMode) IsValid() bool {
	for _, valid := range ValidOptimizationModes() {
		if m == valid {
			return true
		}
	}
	return false
}
