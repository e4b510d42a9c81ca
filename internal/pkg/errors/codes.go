package errors

import "net/http"

// NotFound
var (
	ErrRouteNotFound = New(
		"ROUTE_NOT_FOUND",
		"Itinerary not found",
		http.StatusNotFound,
	)

	ErrDayNotFound = New(
		"DAY_NOT_FOUND",
		"Day not found",
		http.StatusNotFound,
	)

	ErrPointNotFound = New(
		"POINT_NOT_FOUND",
		"Point not found in itinerary",
		http.StatusNotFound,
	)

	ErrPOINotFound = New(
		"POI_NOT_FOUND",
		"Point of interest not found",
		http.StatusNotFound,
	)
)

// ValidationError
var (
	ErrValidation = New(
		"VALIDATION_ERROR",
		"Validation failed",
		http.StatusBadRequest,
	)

	ErrDuplicateRouteName = New(
		"DUPLICATE_ROUTE_NAME",
		"An itinerary with this name already exists",
		http.StatusBadRequest,
	)

	ErrInvalidDayCount = New(
		"INVALID_DAY_COUNT",
		"Day count is out of the accepted range",
		http.StatusBadRequest,
	)

	ErrInvalidReorderSet = New(
		"INVALID_REORDER_SET",
		"Point ids must match the itinerary's points exactly",
		http.StatusBadRequest,
	)

	ErrDuplicatePOIInDay = New(
		"DUPLICATE_POI_IN_DAY",
		"Point of interest is already scheduled for this day",
		http.StatusBadRequest,
	)

	ErrInvalidOptimizationMode = New(
		"INVALID_OPTIMIZATION_MODE",
		"Invalid optimization mode",
		http.StatusBadRequest,
	)

	ErrInvalidTransportMode = New(
		"INVALID_TRANSPORT_MODE",
		"Invalid transport mode",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRadius = New(
		"INVALID_RADIUS",
		"Invalid radius value",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)
)

// Unauthorized
var (
	ErrMissingOwner = New(
		"MISSING_OWNER",
		"X-User-ID header is required",
		http.StatusUnauthorized,
	)
)

// UpstreamUnavailable / ConcurrencyConflict
var (
	ErrUpstreamUnavailable = New(
		"UPSTREAM_UNAVAILABLE",
		"POI catalog is unavailable",
		http.StatusServiceUnavailable,
	)

	ErrConcurrencyConflict = &AppError{
		Code:       "CONCURRENCY_CONFLICT",
		Message:    "Itinerary was modified concurrently, retry the request",
		StatusCode: http.StatusConflict,
		Retryable:  true,
		Details:    make(map[string]interface{}),
	}
)

// Internal
var (
	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
