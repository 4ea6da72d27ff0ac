package controller

import (
	"errors"
	"fmt"
	"net/http"

	"soilmon/internal/modules/soil/types"
	"soilmon/internal/utils"
)

const maxBodyBytes = 1 << 20

const (
	msgWelcome         = "Welcome to Soil IoT Monitoring API"
	msgSaved           = "Data saved successfully."
	msgRetrieved       = "Data retrieved successfully."
	msgFieldsRequired  = "All fields are required."
	msgDatesRequired   = "Start and end dates are required."
	msgInvalidDate     = "Dates must be formatted as YYYY-MM-DD."
	msgInvertedRange   = "Start date must not be after end date."
	msgInvalidBody     = "Request body must be a JSON object."
	msgBodyTooLarge    = "Request body is too large."
	msgSaveFailed      = "Error while saving data."
	msgRetrieveFailed  = "Error while retrieving data."
	msgCSVFailed       = "Error while retrieving data for CSV."
	csvContentType     = "text/csv; charset=utf-8"
	csvFilenamePattern = "all_sensor_data_%s_%s.csv"
)

var msgInvalidField = fmt.Sprintf("Field must be one of %s, %s, %s, %s.",
	types.FieldNitrogen, types.FieldPhosphorus, types.FieldPotassium, types.FieldPH)

// writeBadRequest maps a query parameter error to its 400 response and
// reports whether err was one.
func writeBadRequest(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, types.ErrMissingDates):
		utils.WriteError(w, http.StatusBadRequest, msgDatesRequired)
	case errors.Is(err, types.ErrInvalidDate):
		utils.WriteError(w, http.StatusBadRequest, msgInvalidDate)
	case errors.Is(err, types.ErrInvertedRange):
		utils.WriteError(w, http.StatusBadRequest, msgInvertedRange)
	case errors.Is(err, types.ErrInvalidField):
		utils.WriteError(w, http.StatusBadRequest, msgInvalidField)
	case errors.Is(err, types.ErrBadRequest):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		return false
	}
	return true
}

// writeValidationError answers a rejected reading with the offending fields.
func writeValidationError(w http.ResponseWriter, verr *types.ValidationError) {
	if verr.Malformed != nil {
		utils.WriteError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	details := map[string]any{}
	if len(verr.Missing) > 0 {
		details["missing"] = verr.Missing
	}
	if len(verr.Invalid) > 0 {
		details["invalid"] = verr.Invalid
	}
	utils.WriteErrorDetails(w, http.StatusBadRequest, msgFieldsRequired, details)
}

func csvFilename(start, end string) string {
	return fmt.Sprintf(csvFilenamePattern, start, end)
}
