package engine

import (
	"strings"

	"github.com/memora-app/memora/models"
)

// Per-kind validation rule sets. Each is a pure function of the proposed
// payload, runs strictly before any backend call, and reports a
// ValidationError with a machine-readable code. Invalid fields are never
// silently coerced or dropped.

const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0
)

func validateCanvas(c models.Canvas) *ValidationError {
	if strings.TrimSpace(c.Title) == "" {
		return &ValidationError{Code: "TITLE_REQUIRED", Message: "canvas title must not be empty"}
	}
	if len(c.Pages) == 0 {
		return &ValidationError{Code: "PAGES_REQUIRED", Message: "canvas must have at least one page"}
	}
	for _, page := range c.Pages {
		if page.Id == "" {
			return &ValidationError{Code: "PAGE_ID_REQUIRED", Message: "every canvas page needs an id"}
		}
	}
	return nil
}

func validateDocument(d models.Document) *ValidationError {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Code: "TITLE_REQUIRED", Message: "document title must not be empty"}
	}
	return nil
}

func validateTrip(t models.Trip) *ValidationError {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Code: "NAME_REQUIRED", Message: "trip name must not be empty"}
	}
	if t.StartDate != 0 && t.EndDate != 0 && t.EndDate < t.StartDate {
		return &ValidationError{Code: "DATE_ORDER", Message: "trip end date must not be before its start date"}
	}
	return nil
}

func validatePhoto(p models.Photo) *ValidationError {
	if strings.TrimSpace(p.FileName) == "" {
		return &ValidationError{Code: "FILENAME_REQUIRED", Message: "photo file name must not be empty"}
	}
	return nil
}

func validateLocation(l models.Location) *ValidationError {
	if strings.TrimSpace(l.Name) == "" {
		return &ValidationError{Code: "NAME_REQUIRED", Message: "location name must not be empty"}
	}
	if l.Latitude < minLatitude || l.Latitude > maxLatitude {
		return &ValidationError{Code: "LATITUDE_RANGE", Message: "latitude must be between -90 and 90"}
	}
	if l.Longitude < minLongitude || l.Longitude > maxLongitude {
		return &ValidationError{Code: "LONGITUDE_RANGE", Message: "longitude must be between -180 and 180"}
	}
	return nil
}
