package pages

import (
	"strings"
	"time"

	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/state"
)

// Header labels shared across screens.
const (
	hDateTime    = "Date & Time"
	hPatientInfo = "Patient Info"
	hTestInfo    = "Test Info"
	hDeviceInfo  = "Device Info"
	hUserInfo    = "User Info"
	hResults     = "Results"
	hTestResult  = "Test Result"
	hAnalytes    = "Analytes"
	hUserID      = "User ID"
	hLocation    = "Location"
	hNotices     = "Notices"
	hStatus      = "Status"
	hTime        = "Time"
	hInfo        = "Info"
	hTag         = "Tag"
	hName        = "Name"
	hID          = "ID"
	hDepartment  = "Department"
	hRole        = "Role"
	hDateTrained = "Date Trained"
	hDateExpires = "Date Expires"
	hDescription = "Description"
	hAddress     = "Street Address"
	hCity        = "City"
	hState       = "State / Province"
	hZip         = "Zip / Postal"
	hNameSerial  = "Name & Serial"
	hInstalled   = "Date Installed"
)

const notAvailable = "NA"

func field[R any](path, header string, width int) grid.Column[R] {
	return grid.Column[R]{Header: header, Accessor: grid.Path[R](path), Width: width}
}

func text[R any](id, header string, width int, fn func(R) string) grid.Column[R] {
	return grid.Column[R]{
		ID:       id,
		Header:   header,
		Width:    width,
		Accessor: grid.Fn(func(r R) grid.Value { return grid.String(fn(r)) }),
	}
}

func count[R any](id, header string, fn func(R) int) grid.Column[R] {
	return grid.Column[R]{
		ID:       id,
		Header:   header,
		Width:    10,
		Accessor: grid.Fn(func(r R) grid.Value { return grid.Number(float64(fn(r))) }),
	}
}

// instant sorts by the time itself and displays it in the user's zone.
func instant[R any](f *state.Formatter, id, header string, fn func(R) time.Time) grid.Column[R] {
	return grid.Column[R]{
		ID:       id,
		Header:   header,
		Width:    22,
		Accessor: grid.Fn(func(r R) grid.Value { return grid.Time(fn(r)) }),
		Cell:     func(r R, _ grid.Value) string { return f.DateTime(fn(r)) },
	}
}

// day is instant without the time of day. Missing dates show NA.
func day[R any](f *state.Formatter, id, header string, fn func(R) time.Time) grid.Column[R] {
	return grid.Column[R]{
		ID:       id,
		Header:   header,
		Width:    12,
		Accessor: grid.Fn(func(r R) grid.Value { return grid.Time(fn(r)) }),
		Cell: func(r R, _ grid.Value) string {
			if d := f.Date(fn(r)); d != "" {
				return d
			}
			return notAvailable
		},
	}
}

func more[R any](path string) grid.Column[R] {
	return grid.Column[R]{
		ID:            grid.RowActionsColumnID,
		Accessor:      grid.Path[R](path),
		Width:         2,
		DisableSortBy: true,
		Cell: func(_ R, v grid.Value) string {
			if v.IsEmpty() {
				return ""
			}
			return "›"
		},
	}
}

// pick keeps the columns of full whose keys are listed, in that order.
func pick[R any](full []grid.Column[R], keys ...string) []grid.Column[R] {
	out := make([]grid.Column[R], 0, len(keys))
	for _, k := range keys {
		for _, c := range full {
			if c.Key() == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " / ")
}
