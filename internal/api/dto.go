package api

import (
	"errors"

	"github.com/Veraticus/sheetsync/internal/engine"
	"github.com/Veraticus/sheetsync/internal/model"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PushRequest is the body a sheet script sends to /api/sheets/sync.
type PushRequest struct {
	SheetType string           `json:"sheetType"`
	Rows      []map[string]any `json:"rows"`
}

// SyncResponse reports the outcome of a push or pull sync.
type SyncResponse struct {
	Report            *engine.SyncReport `json:"report"`
	SheetType         model.RecordType   `json:"sheetType,omitempty"`
	DatesRecalculated []string           `json:"datesRecalculated"`
	Errors            []string           `json:"errors,omitempty"`
	RowsProcessed     int                `json:"rowsProcessed"`
	Alerts            int                `json:"alerts"`
	Success           bool               `json:"success"`
}

// ConnectRequest connects a spreadsheet by URL.
type ConnectRequest struct {
	SheetURL string `json:"sheetUrl"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// ConnectionResponse describes the user's connected spreadsheet.
type ConnectionResponse struct {
	Sheet               *model.UserSheet `json:"sheet"`
	Metadata            *SheetMetadata   `json:"metadata,omitempty"`
	ServiceAccountEmail string           `json:"serviceAccountEmail,omitempty"`
}

// SheetMetadata is what the reader could see of a spreadsheet.
type SheetMetadata struct {
	Title string   `json:"title"`
	Tabs  []string `json:"tabs"`
}

// CreateTokenRequest creates a sync token.
type CreateTokenRequest struct {
	Label string `json:"label"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SuccessResponse acknowledges requests with no other payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

func newSyncResponse(report *engine.SyncReport, err error) SyncResponse {
	resp := SyncResponse{
		Report:            report,
		Success:           err == nil,
		DatesRecalculated: []string{},
	}
	if report == nil {
		return resp
	}

	resp.RowsProcessed = report.Stored()
	resp.Alerts = report.AlertCount()
	resp.DatesRecalculated = report.DatesRecalculated()
	var syncErr *engine.SyncError
	if errors.As(err, &syncErr) {
		for _, f := range syncErr.Failures {
			resp.Errors = append(resp.Errors, f.Error())
		}
	} else if err != nil {
		resp.Errors = []string{err.Error()}
	}
	return resp
}
