package dxapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type noticeStatusInput struct {
	IDs  []string `json:"ids" validate:"required,min=1,dive,required"`
	Read bool     `json:"read"`
}

type idInput struct {
	ID string `json:"id" validate:"required"`
}

// UpdateNoticeStatus marks notices read or unread in one call.
func (c *Client) UpdateNoticeStatus(ctx context.Context, ids []string, read bool) error {
	input := noticeStatusInput{IDs: ids, Read: read}
	if err := c.check("update notice status", input); err != nil {
		return err
	}
	_, err := c.Do(ctx, noticeStatus(ids), RequestConfig{
		Method: http.MethodPut,
		Body:   map[string]bool{"read": read},
	})
	return err
}

// SaveFacility creates or updates a location and returns the saved record.
func (c *Client) SaveFacility(ctx context.Context, f Facility) (Facility, error) {
	if err := c.check("save facility", f); err != nil {
		return Facility{}, err
	}
	if f.FacilityID == "" {
		f.FacilityID = NewRecordID
	}
	raw, err := c.Do(ctx, FacilitiesPath+"/save", RequestConfig{Body: f})
	if err != nil {
		return Facility{}, err
	}
	saved := f
	if string(raw) != "null" {
		if err := json.Unmarshal(raw, &saved); err != nil {
			return Facility{}, fmt.Errorf("decode response: %w", err)
		}
	}
	return saved, nil
}

// DeleteFacility removes a location.
func (c *Client) DeleteFacility(ctx context.Context, id string) error {
	if err := c.check("delete facility", idInput{ID: id}); err != nil {
		return err
	}
	if id == NewRecordID {
		return &ValidationError{Operation: "delete facility", Fields: []FieldError{{Field: "id", Rule: "saved"}}}
	}
	_, err := c.Do(ctx, Detail(FacilitiesPath, id), RequestConfig{Method: http.MethodDelete})
	return err
}

// UpdateDevice saves the editable fields of a device.
func (c *Client) UpdateDevice(ctx context.Context, id string, update DeviceUpdate) error {
	if err := c.check("update device", idInput{ID: id}); err != nil {
		return err
	}
	if err := c.check("update device", update); err != nil {
		return err
	}
	_, err := c.Do(ctx, Detail(DevicesPath, id), RequestConfig{Method: http.MethodPut, Body: update})
	return err
}

// SaveAccountSettings posts the account-wide display settings.
func (c *Client) SaveAccountSettings(ctx context.Context, s AccountSettings) error {
	if err := c.check("save account settings", s); err != nil {
		return err
	}
	_, err := c.Do(ctx, AccountPath, RequestConfig{Body: s})
	return err
}

// AccountSettings fetches the account-wide display settings.
func (c *Client) AccountSettings(ctx context.Context) (AccountSettings, error) {
	return get[AccountSettings](ctx, c, AccountPath)
}

// Device fetches one device.
func (c *Client) Device(ctx context.Context, id string) (Device, error) {
	return get[Device](ctx, c, Detail(DevicesPath, id))
}

// Facility fetches one location.
func (c *Client) Facility(ctx context.Context, id string) (Facility, error) {
	return get[Facility](ctx, c, Detail(FacilitiesPath, id))
}
