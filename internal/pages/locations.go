package pages

import (
	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/state"
)

// Locations lists the facilities.
func Locations() Page[dxapi.Facility] {
	type row = dxapi.Facility

	full := []grid.Column[row]{
		field[row]("facilityName", hName, 22),
		text("address", hAddress, 26, func(l row) string { return join(l.Address1, l.Address2) }),
		field[row]("description", hDescription, 0),
		field[row]("city", hCity, 14),
		field[row]("state", hState, 10),
		field[row]("zip", hZip, 8),
		more[row]("facilityID"),
	}

	return Page[row]{
		info: Info{
			Name:           "locations",
			Title:          "Locations",
			Control:        state.ControlLocations,
			Placeholder:    "Search for locations",
			DetailResource: dxapi.FacilitiesPath,
		},
		key: func(Params) datacache.Key { return datacache.NewKey(dxapi.FacilitiesPath) },
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, "facilityName", "city", grid.RowActionsColumnID),
			grid.MD: pick(full, "facilityName", "address", "city", "state", grid.RowActionsColumnID),
			grid.LG: full,
		},
		initialSort: grid.SortBy{ColumnID: "facilityName"},
		rowKey:      func(l row) string { return l.FacilityID },
		meta:        staticMeta("locations", "locations list", "locations"),
	}
}

// LocationsSummary is the per-facility report.
func LocationsSummary() Page[dxapi.LocationSummary] {
	type row = dxapi.LocationSummary

	full := []grid.Column[row]{
		field[row]("facilityName", hLocation, 22),
		count("userCount", "Users allocated", func(l row) int { return l.UserCount }),
		count("deviceCount", "Systems allocated", func(l row) int { return l.DeviceCount }),
		count("testCount", "Total Patient Tests", func(l row) int { return l.TestCount }),
		count("failedTestCount", "Failed Patient Tests", func(l row) int { return l.FailedTestCount }),
		count("qcTestCount", "Total QC tests", row.QCTestCount),
		count("failedQCTestCount", "Failed QC tests", func(l row) int { return l.FailedQCTestCount }),
	}

	return Page[row]{
		info: Info{
			Name:        "locations-summary",
			Title:       "Locations Report",
			Control:     state.ControlReports,
			Placeholder: "Search for locations",
			DateRange:   true,
		},
		key: func(p Params) datacache.Key {
			return datacache.NewKey(dxapi.LocationsSummary(p.Range.Start, p.Range.End))
		},
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, "facilityName", "testCount", "qcTestCount"),
			grid.LG: full,
		},
		initialSort: grid.SortBy{ColumnID: "facilityName"},
		meta:        staticMeta("locationreports", "location reports list", "location reports"),
	}
}
