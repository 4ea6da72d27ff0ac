package controller

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"soilmon/internal/modules/soil/export"
	"soilmon/internal/modules/soil/types"
	"soilmon/internal/utils"
)

func (c *soilControllerImpl) handleWelcome(w http.ResponseWriter, r *http.Request) {
	utils.WriteMessage(w, http.StatusOK, msgWelcome)
}

func (c *soilControllerImpl) handleSave(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		utils.WriteError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	_, err = c.service.Save(r.Context(), body)
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case err != nil:
		c.logger.Error("save reading failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgSaveFailed)
	default:
		utils.WriteMessage(w, http.StatusOK, msgSaved)
	}
}

func (c *soilControllerImpl) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c.writeRows(w, r, q.Get("start"), q.Get("end"), q.Get("field"))
}

func (c *soilControllerImpl) handleQueryAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c.writeRows(w, r, q.Get("start"), q.Get("end"), "")
}

func (c *soilControllerImpl) writeRows(w http.ResponseWriter, r *http.Request, start, end, field string) {
	rows, err := c.service.Query(r.Context(), start, end, field)
	if writeBadRequest(w, err) {
		return
	}
	if err != nil {
		c.logger.Error("query readings failed",
			"start", start,
			"end", end,
			"field", field,
			"error", err,
		)
		utils.WriteError(w, http.StatusInternalServerError, msgRetrieveFailed)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": msgRetrieved,
		"data":    rows,
	})
}

func (c *soilControllerImpl) handleCSV(w http.ResponseWriter, r *http.Request) {
	start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")

	records, err := c.service.Export(r.Context(), start, end)
	if writeBadRequest(w, err) {
		return
	}
	if err != nil {
		c.logger.Error("csv export failed", "start", start, "end", end, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgCSVFailed)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		c.logger.Error("csv render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgCSVFailed)
		return
	}
	utils.WriteAttachment(w, csvContentType, csvFilename(start, end), buf.Bytes())
}
